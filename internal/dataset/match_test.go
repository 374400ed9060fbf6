package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprep/internal/dataset"
)

func writeText(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestMatchPairsByStem(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "a.txt"), "first line\nsecond line\n")
	writeText(t, filepath.Join(dir, "b.txt"), "only line")
	writeText(t, filepath.Join(dir, "orphan.txt"), "no audio for this one")

	audio := []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "c.wav"), // no transcript
	}
	texts := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "orphan.txt"),
	}

	samples, err := dataset.Match(audio, texts)
	require.NoError(t, err)
	require.Len(t, samples, 2, "unmatched audio is dropped")

	assert.Equal(t, filepath.Join(dir, "a.wav"), samples[0].AudioFile)
	assert.Equal(t, "first linesecond line", samples[0].Text, "line breaks are stripped")
	assert.Equal(t, filepath.Join(dir, "b.wav"), samples[1].AudioFile)
	assert.Equal(t, "only line", samples[1].Text)

	for _, s := range samples {
		assert.NotEmpty(t, s.Text, "no matched sample may carry an empty transcript")
		assert.Contains(t, audio, s.AudioFile, "every output path is one of the inputs")
	}
}

func TestMatchDuplicateStemLastWins(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "a.txt"), "text for a")

	audio := []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "a.flac"),
	}

	samples, err := dataset.Match(audio, []string{filepath.Join(dir, "a.txt")})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, filepath.Join(dir, "a.flac"), samples[0].AudioFile)
}

func TestMatchDropsEmptyTranscript(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "a.txt"), "")

	samples, err := dataset.Match([]string{filepath.Join(dir, "a.wav")}, []string{filepath.Join(dir, "a.txt")})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestMatchUnder(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "spk", "ch", "x.txt"), "x text")
	writeText(t, filepath.Join(dir, "spk", "ch", "x.wav"), "not real audio")
	writeText(t, filepath.Join(dir, "spk", "ch", "y.wav"), "no transcript")

	samples, err := dataset.MatchUnder(dir, "wav", "txt")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "x text", samples[0].Text)
	assert.Equal(t, filepath.Join(dir, "spk", "ch", "x.txt"), samples[0].TextFile)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "84_121550", dataset.Stem("/data/84_121550.normalized.txt"))
	assert.Equal(t, "a", dataset.Stem("a.wav"))
	assert.Equal(t, "noext", dataset.Stem("/x/noext"))
}

func TestSpeakerFromPath(t *testing.T) {
	id, err := dataset.SpeakerFromPath("/corpus/train/1089/134686/1089_134686_000001.wav", 3)
	require.NoError(t, err)
	assert.Equal(t, "1089", id)

	_, err = dataset.SpeakerFromPath("short.wav", 3)
	assert.Error(t, err)
}

func TestLoadSpeakerTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speakers.tsv")
	writeText(t, path, "READER\tGENDER\tNAME\n1089\tM\tSomeone\n1188\tF\tSomeone Else\n")

	table, err := dataset.LoadSpeakerTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "M", table["1089"].Gender)
	assert.Equal(t, "F", table["1188"].Gender)
}

func TestLoadSpeakerTableMissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speakers.tsv")
	writeText(t, path, "FOO\tBAR\n1\t2\n")

	_, err := dataset.LoadSpeakerTable(path)
	assert.Error(t, err)
}
