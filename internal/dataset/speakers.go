package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SpeakerInfo is one row of an auxiliary speaker table.
type SpeakerInfo struct {
	ID     string
	Gender string
}

// SpeakerTable maps speaker identifiers to their metadata.
type SpeakerTable map[string]SpeakerInfo

// SpeakerNotFoundError reports a failed speaker-table join. This is
// fatal: a missing speaker row means the table and the corpus layout
// disagree.
type SpeakerNotFoundError struct {
	Speaker   string
	AudioFile string
}

func (e *SpeakerNotFoundError) Error() string {
	return fmt.Sprintf("speaker %q (from %s) not found in speaker table", e.Speaker, e.AudioFile)
}

// LoadSpeakerTable reads a TSV speaker table. The header must contain
// READER (the speaker id) and GENDER columns, matching the speakers.tsv
// convention of LibriTTS-style corpora; header matching is
// case-insensitive.
func LoadSpeakerTable(path string) (SpeakerTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read speaker table %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("speaker table %s is empty", path)
	}

	idCol, genderCol := -1, -1
	for i, col := range rows[0] {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case "READER", "SPEAKER", "ID":
			idCol = i
		case "GENDER", "SEX":
			genderCol = i
		}
	}
	if idCol < 0 || genderCol < 0 {
		return nil, fmt.Errorf("speaker table %s missing READER/GENDER columns", path)
	}

	table := make(SpeakerTable, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= idCol || len(row) <= genderCol {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		table[id] = SpeakerInfo{ID: id, Gender: strings.TrimSpace(row[genderCol])}
	}
	return table, nil
}

// SpeakerFromPath derives a speaker id from a path segment counted
// from the file: depth 3 means the directory three levels up ends up
// being .../<speaker>/<chapter>/<file>, the LibriTTS layout.
func SpeakerFromPath(path string, depth int) (string, error) {
	if depth < 2 {
		depth = 3
	}
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	if len(parts) < depth {
		return "", fmt.Errorf("path %s too shallow to hold a speaker segment at depth %d", path, depth)
	}
	return parts[len(parts)-depth], nil
}
