package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dataprep/internal/acquire"
	"dataprep/internal/config"
	"dataprep/internal/fetch"
	"dataprep/internal/kaggle"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var parallel bool
	var workers int
	var resume bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "download <dataset>...",
		Short: "Download and extract one or more datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			datasets, err := ctx.loadDatasets()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Data.Dir
				if outDir == "" {
					outDir = "."
				}
			}
			if workers == 0 {
				workers = cfg.Workers.Download
			}

			var entries []acquire.Entry
			for _, name := range args {
				spec, err := config.Find(datasets, name)
				if err != nil {
					return err
				}
				if spec.Kaggle != "" {
					if err := downloadKaggle(cmd, spec, outDir); err != nil {
						return err
					}
					continue
				}
				for _, res := range spec.Resources {
					entries = append(entries, acquire.Entry{
						Name: spec.Name,
						Resource: fetch.Resource{
							URL:          res.URL,
							Checksum:     res.Checksum,
							ChecksumKind: res.ChecksumKind,
						},
					})
				}
			}
			if len(entries) == 0 {
				return nil
			}

			results, err := acquire.AcquireAll(cmd.Context(), entries, outDir, acquire.Options{
				Parallel:  parallel,
				Workers:   workers,
				Resume:    resume,
				Overwrite: overwrite,
				Progress:  true,
			})
			if len(results) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), acquire.RenderResults(results))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to DATA_DIR)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Download archives on a worker pool")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (defaults to DOWNLOAD_WORKERS)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume partially downloaded archives")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-extract over existing files")

	return cmd
}

func downloadKaggle(cmd *cobra.Command, spec *config.DatasetSpec, outDir string) error {
	creds, err := kaggle.LoadCredentials()
	if err != nil {
		return err
	}
	root, err := kaggle.NewClient(creds).DownloadDataset(cmd.Context(), spec.Kaggle, spec.Name, outDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: extracted to %s\n", spec.Name, root)
	return nil
}
