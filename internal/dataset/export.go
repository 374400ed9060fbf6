package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ExportOptions control which tables and documents are written.
type ExportOptions struct {
	// Splits are named subsets selected by substring match on the
	// audio path, e.g. "train", "dev", "test". Each gets its own
	// <split>_metadata.csv next to the full table.
	Splits []string
	// Card, when set, renders a dataset card into the output dir.
	Card *CardOptions
}

// Export writes the full pipe-delimited metadata table, one table per
// requested split, and optionally the dataset card. Re-running
// overwrites everything at the same paths.
func Export(samples []Sample, outDir string, opts ExportOptions) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	metadataPath := filepath.Join(outDir, "metadata.csv")
	if err := WriteTable(samples, metadataPath); err != nil {
		return err
	}

	for _, split := range opts.Splits {
		subset := make([]Sample, 0, len(samples))
		for _, s := range samples {
			if strings.Contains(s.AudioFile, split) {
				subset = append(subset, s)
			}
		}
		path := filepath.Join(outDir, split+"_metadata.csv")
		if err := WriteTable(subset, path); err != nil {
			return err
		}
	}

	if opts.Card != nil {
		card := *opts.Card
		if card.MetadataFile == "" {
			card.MetadataFile = metadataPath
		}
		if err := WriteCard(samples, outDir, card); err != nil {
			return err
		}
	}
	return nil
}

// Columns returns the table column set for a sample collection. The
// speaker, gender and emotion columns appear only when some sample
// carries them; every row always matches the header.
func Columns(samples []Sample) []string {
	cols := []string{"audio_file", "text", "snr", "audio_len", "sample_rate"}
	hasSpeaker, hasEmotion := false, false
	for _, s := range samples {
		if s.Speaker != "" {
			hasSpeaker = true
		}
		if s.Emotion != "" {
			hasEmotion = true
		}
	}
	if hasSpeaker {
		cols = append(cols, "speaker", "gender")
	}
	if hasEmotion {
		cols = append(cols, "emotion")
	}
	return cols
}

// WriteTable writes samples as a pipe-delimited table with a header
// row. Field values containing the delimiter get quoted by the writer;
// transcripts should not contain pipes.
func WriteTable(samples []Sample, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Comma = '|'

	cols := Columns(samples)
	if err := w.Write(cols); err != nil {
		f.Close()
		return err
	}

	for _, s := range samples {
		row := make([]string, 0, len(cols))
		for _, col := range cols {
			row = append(row, fieldValue(s, col))
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fieldValue(s Sample, col string) string {
	switch col {
	case "audio_file":
		return s.AudioFile
	case "text":
		return s.Text
	case "snr":
		return formatFloat(s.SNR)
	case "audio_len":
		return formatFloat(s.AudioLen)
	case "sample_rate":
		return strconv.Itoa(s.SampleRate)
	case "speaker":
		return s.Speaker
	case "gender":
		return s.Gender
	case "emotion":
		return s.Emotion
	default:
		panic(fmt.Sprintf("unknown column %q", col))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
