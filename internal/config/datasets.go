package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ResourceSpec is one downloadable archive belonging to a dataset.
type ResourceSpec struct {
	URL          string `toml:"url"`
	Checksum     string `toml:"checksum"`
	ChecksumKind string `toml:"checksum_kind"`
}

// DatasetSpec describes a corpus: where to fetch it and how its files
// are laid out once extracted.
type DatasetSpec struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Source      string         `toml:"source"`
	Resources   []ResourceSpec `toml:"resources"`
	// Kaggle is a dataset slug ("owner/dataset") fetched through the
	// Kaggle API instead of plain HTTP resources.
	Kaggle string `toml:"kaggle"`
	// AudioExt and TextExt select the files paired into samples.
	AudioExt string `toml:"audio_ext"`
	TextExt  string `toml:"text_ext"`
	// SpeakerTable points at a TSV with READER/GENDER columns,
	// relative to the extraction root.
	SpeakerTable string `toml:"speaker_table"`
	// Splits are substrings of audio paths naming subsets, e.g.
	// "train-clean-100".
	Splits []string `toml:"splits"`
}

type datasetFile struct {
	Datasets []DatasetSpec `toml:"dataset"`
}

// LoadDatasets reads the [[dataset]] descriptors from a TOML file.
func LoadDatasets(path string) ([]DatasetSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file datasetFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i := range file.Datasets {
		d := &file.Datasets[i]
		if d.Name == "" {
			return nil, fmt.Errorf("%s: dataset %d has no name", path, i)
		}
		if len(d.Resources) == 0 && d.Kaggle == "" {
			return nil, fmt.Errorf("%s: dataset %q has neither resources nor a kaggle slug", path, d.Name)
		}
		if d.AudioExt == "" {
			d.AudioExt = "wav"
		}
		if d.TextExt == "" {
			d.TextExt = "txt"
		}
	}
	return file.Datasets, nil
}

// Find returns the descriptor with the given name.
func Find(datasets []DatasetSpec, name string) (*DatasetSpec, error) {
	for i := range datasets {
		if datasets[i].Name == name {
			return &datasets[i], nil
		}
	}
	return nil, fmt.Errorf("dataset %q not found in descriptor file", name)
}
