package acquire_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprep/internal/acquire"
	"dataprep/internal/fetch"
	"dataprep/internal/testsupport"
)

// newCorpusServer serves little tar.gz corpora under /<name>.tar.gz.
func newCorpusServer(t *testing.T, corpora map[string][]testsupport.File) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for name, files := range corpora {
		payload := testsupport.TarGzBytes(t, files)
		mux.HandleFunc("/"+name+".tar.gz", func(w http.ResponseWriter, r *http.Request) {
			http.ServeContent(w, r, name+".tar.gz", time.Unix(0, 0), bytes.NewReader(payload))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func corpusEntry(srv *httptest.Server, name string) acquire.Entry {
	return acquire.Entry{
		Name:     name,
		Resource: fetch.Resource{URL: srv.URL + "/" + name + ".tar.gz"},
	}
}

func TestAcquireAllSequential(t *testing.T) {
	srv := newCorpusServer(t, map[string][]testsupport.File{
		"alpha": {{Name: "alpha_v1/a.wav", Body: "A"}},
		"beta":  {{Name: "beta_v1/b.wav", Body: "B"}},
	})
	dest := t.TempDir()

	entries := []acquire.Entry{corpusEntry(srv, "alpha"), corpusEntry(srv, "beta")}
	results, err := acquire.AcquireAll(context.Background(), entries, dest, acquire.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2, "every entry reports a result, not just the last")

	assert.Equal(t, "alpha", results[0].Name)
	assert.Equal(t, filepath.Join(dest, "alpha", "alpha_v1"), results[0].Dir)
	assert.Equal(t, "beta", results[1].Name)
	assert.Equal(t, filepath.Join(dest, "beta", "beta_v1"), results[1].Dir)

	_, err = os.Stat(filepath.Join(dest, "alpha", "alpha_v1", "a.wav"))
	assert.NoError(t, err)
}

func TestAcquireAllParallel(t *testing.T) {
	corpora := map[string][]testsupport.File{}
	names := []string{"one", "two", "three", "four", "five"}
	for _, n := range names {
		corpora[n] = []testsupport.File{{Name: n + "/audio.wav", Body: n}}
	}
	srv := newCorpusServer(t, corpora)
	dest := t.TempDir()

	var entries []acquire.Entry
	for _, n := range names {
		entries = append(entries, corpusEntry(srv, n))
	}

	results, err := acquire.AcquireAll(context.Background(), entries, dest, acquire.Options{Parallel: true, Workers: 3})
	require.NoError(t, err)
	require.Len(t, results, len(names))

	for i, n := range names {
		assert.Equal(t, n, results[i].Name)
		assert.NoError(t, results[i].Err)
		_, statErr := os.Stat(filepath.Join(dest, n, n, "audio.wav"))
		assert.NoError(t, statErr)
	}
}

func TestAcquireAllSameNameEntriesUseDisjointDirs(t *testing.T) {
	// One dataset split over two archives that share a top-level file,
	// the LibriTTS layout. Parallel workers must not extract into the
	// same directory, or one archive's copy silently shadows the other.
	srv := newCorpusServer(t, map[string][]testsupport.File{
		"train-clean": {
			{Name: "corpus/speakers.tsv", Body: "FROM-TRAIN"},
			{Name: "corpus/train/a.wav", Body: "A"},
		},
		"dev-clean": {
			{Name: "corpus/speakers.tsv", Body: "FROM-DEV"},
			{Name: "corpus/dev/b.wav", Body: "B"},
		},
	})
	dest := t.TempDir()

	entries := []acquire.Entry{
		{Name: "libritts", Resource: fetch.Resource{URL: srv.URL + "/train-clean.tar.gz"}},
		{Name: "libritts", Resource: fetch.Resource{URL: srv.URL + "/dev-clean.tar.gz"}},
	}

	results, err := acquire.AcquireAll(context.Background(), entries, dest, acquire.Options{Parallel: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(dest, "libritts", "train-clean", "corpus"), results[0].Dir)
	assert.Equal(t, filepath.Join(dest, "libritts", "dev-clean", "corpus"), results[1].Dir)
	assert.NotEqual(t, results[0].Dir, results[1].Dir)

	trainTSV, err := os.ReadFile(filepath.Join(results[0].Dir, "speakers.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "FROM-TRAIN", string(trainTSV))

	devTSV, err := os.ReadFile(filepath.Join(results[1].Dir, "speakers.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "FROM-DEV", string(devTSV))
}

func TestAcquireAllReportsPerEntryFailure(t *testing.T) {
	srv := newCorpusServer(t, map[string][]testsupport.File{
		"good": {{Name: "good/a.wav", Body: "A"}},
	})
	dest := t.TempDir()

	entries := []acquire.Entry{
		corpusEntry(srv, "good"),
		{Name: "missing", Resource: fetch.Resource{URL: srv.URL + "/missing.tar.gz"}},
	}

	results, err := acquire.AcquireAll(context.Background(), entries, dest, acquire.Options{Parallel: true})
	require.Error(t, err, "a failed entry must surface, not vanish")
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Contains(t, err.Error(), "missing")
}

func TestAcquireAllEmptyBatch(t *testing.T) {
	results, err := acquire.AcquireAll(context.Background(), nil, t.TempDir(), acquire.Options{})
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRenderResults(t *testing.T) {
	out := acquire.RenderResults([]acquire.Result{
		{Name: "alpha", Dir: "/data/alpha", Size: 2048, Elapsed: time.Second},
		{Name: "beta", Err: assert.AnError},
	})
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "failed")
}
