package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprep/internal/config"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDatasets(t *testing.T) {
	path := writeTOML(t, `
[[dataset]]
name = "ljspeech"
description = "Single-speaker English corpus"
source = "https://keithito.com/LJ-Speech-Dataset/"
splits = ["wavs"]

[[dataset.resources]]
url = "https://data.keithito.com/data/speech/LJSpeech-1.1.tar.bz2"
checksum = "be1a30453f28eb8dd26af4101ae40cbf2c50413b1bb21936cbcdc6fae3de8aa5"

[[dataset]]
name = "vctk"
audio_ext = "flac"

[[dataset.resources]]
url = "https://datashare.ed.ac.uk/download/DS_10283_3443.zip"
`)

	datasets, err := config.LoadDatasets(path)
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	lj := datasets[0]
	assert.Equal(t, "ljspeech", lj.Name)
	assert.Equal(t, "wav", lj.AudioExt, "default audio extension")
	assert.Equal(t, "txt", lj.TextExt, "default text extension")
	require.Len(t, lj.Resources, 1)
	assert.Contains(t, lj.Resources[0].URL, "tar.bz2")
	assert.NotEmpty(t, lj.Resources[0].Checksum)

	assert.Equal(t, "flac", datasets[1].AudioExt)
}

func TestLoadDatasetsKaggleOnly(t *testing.T) {
	path := writeTOML(t, `
[[dataset]]
name = "shemo"
kaggle = "mansourehk/shemo-persian-speech-emotion-detection-database"
`)
	datasets, err := config.LoadDatasets(path)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.NotEmpty(t, datasets[0].Kaggle)
}

func TestLoadDatasetsRejectsIncomplete(t *testing.T) {
	_, err := config.LoadDatasets(writeTOML(t, "[[dataset]]\nname = \"nowhere\"\n"))
	assert.ErrorContains(t, err, "neither resources nor a kaggle slug")

	_, err = config.LoadDatasets(writeTOML(t, "[[dataset]]\nkaggle = \"a/b\"\n"))
	assert.ErrorContains(t, err, "no name")
}

func TestFind(t *testing.T) {
	datasets := []config.DatasetSpec{{Name: "a"}, {Name: "b"}}

	got, err := config.Find(datasets, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)

	_, err = config.Find(datasets, "c")
	assert.Error(t, err)
}

func TestLoadApplies(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/corpora")
	t.Setenv("DOWNLOAD_WORKERS", "2")

	cfg, err := config.Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "/srv/corpora", cfg.Data.Dir)
	assert.Equal(t, 2, cfg.Workers.Download)
	assert.Equal(t, 3306, cfg.Catalog.Port, "default applies when unset")
}
