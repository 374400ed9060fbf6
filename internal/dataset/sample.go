// Package dataset pairs audio files with transcripts, enriches the
// pairs with acoustic metadata, and exports metadata tables plus a
// dataset card.
package dataset

import (
	"path/filepath"
	"strings"
)

// Sample is one audio/transcript pair. Matching fills AudioFile, Text
// and TextFile; enrichment fills the rest. Duration and sample rate
// use -1 as the corrupt-file sentinel, SNR uses -1.0 when estimation
// failed.
type Sample struct {
	AudioFile  string
	Text       string
	TextFile   string
	SNR        float64
	AudioLen   float64
	SampleRate int
	Speaker    string
	Gender     string
	Emotion    string
}

// Stem returns the join key for a path: the base name up to the first
// dot, so "84_121550.normalized.txt" and "84_121550.wav" share a stem.
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}
