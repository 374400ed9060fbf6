package dataset

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Match pairs audio files with the transcript sharing their stem and
// returns one sample per pair, in audio input order. Audio files with
// no transcript (or an empty one) are dropped. When two audio inputs
// share a stem, the later one wins; this is defined behavior for
// files differing only in extension.
func Match(audioFiles, textFiles []string) ([]Sample, error) {
	index := make(map[string]int, len(audioFiles))
	order := make([]string, 0, len(audioFiles))
	byStem := make(map[string]*Sample, len(audioFiles))

	for _, audioFile := range audioFiles {
		stem := Stem(audioFile)
		if _, seen := index[stem]; !seen {
			index[stem] = len(order)
			order = append(order, stem)
		}
		byStem[stem] = &Sample{AudioFile: audioFile}
	}

	for _, textFile := range textFiles {
		sample, ok := byStem[Stem(textFile)]
		if !ok {
			continue
		}
		text, err := readTranscript(textFile)
		if err != nil {
			return nil, err
		}
		sample.Text = text
		sample.TextFile = textFile
	}

	matched := make([]Sample, 0, len(order))
	for _, stem := range order {
		if s := byStem[stem]; s.Text != "" {
			matched = append(matched, *s)
		}
	}
	return matched, nil
}

// MatchUnder walks root for audio and transcript files by extension
// and matches them. Extensions are given without the dot.
func MatchUnder(root, audioExt, textExt string) ([]Sample, error) {
	audioFiles, err := FindFiles(root, audioExt)
	if err != nil {
		return nil, err
	}
	textFiles, err := FindFiles(root, textExt)
	if err != nil {
		return nil, err
	}
	return Match(audioFiles, textFiles)
}

// FindFiles walks root collecting files with the given extension, in
// lexical walk order.
func FindFiles(root, ext string) ([]string, error) {
	suffix := "." + strings.TrimPrefix(ext, ".")
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, suffix) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// readTranscript reads the whole transcript with line breaks removed.
func readTranscript(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	replacer := strings.NewReplacer("\r", "", "\n", "")
	return replacer.Replace(string(b)), nil
}
