package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dataprep/internal/ffmpeg"
)

func newCutCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "cut <audio> <start> <end>",
		Short: "Cut a segment out of an audio file",
		Long:  "Timestamps use the HH:MM:SS.mmm form, e.g. 00:01:02.500.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, start, end := args[0], args[1], args[2]
			if outDir == "" {
				outDir = filepath.Dir(path)
			}
			out, err := ffmpeg.Cut(path, start, end, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the input's directory)")
	return cmd
}
