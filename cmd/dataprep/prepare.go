package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dataprep/internal/catalog"
	"dataprep/internal/config"
	"dataprep/internal/dataset"
	"dataprep/internal/ffmpeg"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var (
		datasetName  string
		audioExt     string
		textExt      string
		speakerTable string
		speakerDepth int
		splits       []string
		outDir       string
		cardName     string

		format     string
		bitrate    string
		sampleRate int
		convert    bool

		snr      bool
		failFast bool
		workers  int
		ingest   string
	)

	cmd := &cobra.Command{
		Use:   "prepare <dir>",
		Short: "Pair audio with transcripts, enrich and export metadata",
		Long: "Matching conventions come from flags, or from a dataset descriptor\n" +
			"via --dataset; explicit flags override the descriptor.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if outDir == "" {
				outDir = root
			}

			card := dataset.CardOptions{Name: cardName}
			if datasetName != "" {
				datasets, err := ctx.loadDatasets()
				if err != nil {
					return err
				}
				spec, err := config.Find(datasets, datasetName)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("audio-ext") {
					audioExt = spec.AudioExt
				}
				if !cmd.Flags().Changed("text-ext") {
					textExt = spec.TextExt
				}
				if !cmd.Flags().Changed("speakers") {
					speakerTable = spec.SpeakerTable
				}
				if !cmd.Flags().Changed("splits") {
					splits = spec.Splits
				}
				if card.Name == "" {
					card.Name = spec.Name
				}
				card.Source = spec.Source
				card.Description = spec.Description
			}
			if card.Name == "" {
				card.Name = filepath.Base(root)
			}
			if workers == 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				workers = cfg.Workers.Enrich
			}

			samples, err := dataset.MatchUnder(root, audioExt, textExt)
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				return fmt.Errorf("no %s/%s pairs found under %s", audioExt, textExt, root)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "matched %d samples\n", len(samples))

			opts := dataset.EnrichOptions{
				SNR:          snr,
				FailFast:     failFast,
				SpeakerDepth: speakerDepth,
				Workers:      workers,
				Progress:     true,
			}
			if convert {
				opts.Convert = &ffmpeg.ConvertOptions{
					Format:     format,
					Bitrate:    bitrate,
					SampleRate: sampleRate,
				}
			}
			if speakerTable != "" {
				table, err := dataset.LoadSpeakerTable(filepath.Join(root, speakerTable))
				if err != nil {
					return err
				}
				opts.Speakers = table
			}

			enriched, err := dataset.Enrich(samples, opts)
			if err != nil {
				return err
			}

			if err := dataset.Export(enriched, outDir, dataset.ExportOptions{
				Splits: splits,
				Card:   &card,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote metadata and dataset card to %s\n", outDir)

			if ingest == "" {
				return nil
			}
			return ingestCatalog(ctx, cmd, ingest, enriched)
		},
	}

	cmd.Flags().StringVarP(&datasetName, "dataset", "d", "", "Take matching conventions from this descriptor entry")
	cmd.Flags().StringVar(&audioExt, "audio-ext", "wav", "Audio file extension to match")
	cmd.Flags().StringVar(&textExt, "text-ext", "txt", "Transcript file extension to match")
	cmd.Flags().StringVar(&speakerTable, "speakers", "", "Speaker TSV path, relative to the corpus dir")
	cmd.Flags().IntVar(&speakerDepth, "speaker-depth", 3, "Path segment (from the file) holding the speaker id")
	cmd.Flags().StringSliceVar(&splits, "splits", nil, "Split names selected by audio path substring")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the corpus dir)")
	cmd.Flags().StringVar(&cardName, "name", "", "Dataset name on the card (defaults to the dir name)")
	cmd.Flags().BoolVar(&convert, "convert", false, "Transcode audio with ffmpeg before probing")
	cmd.Flags().StringVar(&format, "format", "wav", "Target container for --convert")
	cmd.Flags().StringVar(&bitrate, "bitrate", "16k", "Target bitrate for --convert")
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Target sample rate for --convert (0 keeps the source rate)")
	cmd.Flags().BoolVar(&snr, "snr", true, "Estimate per-sample SNR")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort on the first SNR estimation failure")
	cmd.Flags().IntVar(&workers, "enrich-workers", 0, "Enrichment worker pool size (defaults to ENRICH_WORKERS)")
	cmd.Flags().StringVar(&ingest, "catalog", "", "Ingest results into the catalog under this dataset name")

	return cmd
}

func ingestCatalog(ctx *commandContext, cmd *cobra.Command, name string, samples []dataset.Sample) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	db, err := catalog.New(cfg.Catalog.Host, cfg.Catalog.Port, cfg.Catalog.User, cfg.Catalog.Password, cfg.Catalog.Name)
	if err != nil {
		return fmt.Errorf("connect to catalog: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		return err
	}
	inserted, err := db.Ingest(name, samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "catalog: %d of %d samples ingested\n", inserted, len(samples))
	return nil
}
