package fetch_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprep/internal/fetch"
)

type archiveServer struct {
	payload   []byte
	gets      atomic.Int64
	lastRange atomic.Value
}

func newArchiveServer(t *testing.T, payload []byte) (*archiveServer, *httptest.Server) {
	t.Helper()
	as := &archiveServer{payload: payload}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			as.gets.Add(1)
			as.lastRange.Store(r.Header.Get("Range"))
		}
		http.ServeContent(w, r, "corpus.tar.gz", time.Unix(0, 0), bytes.NewReader(as.payload))
	}))
	t.Cleanup(srv.Close)
	return as, srv
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestFetchDownloadsFile(t *testing.T) {
	payload := bytes.Repeat([]byte("speech"), 4096)
	_, srv := newArchiveServer(t, payload)
	dir := t.TempDir()

	path, err := fetch.Fetch(context.Background(), fetch.Resource{URL: srv.URL + "/corpus.tar.gz"}, dir, fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "corpus.tar.gz"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchRefusesExistingFile(t *testing.T) {
	payload := []byte("payload")
	_, srv := newArchiveServer(t, payload)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corpus.tar.gz"), []byte("stale"), 0o644))

	_, err := fetch.Fetch(context.Background(), fetch.Resource{URL: srv.URL + "/corpus.tar.gz"}, dir, fetch.Options{})
	assert.ErrorIs(t, err, fetch.ErrAlreadyExists)
}

func TestFetchResumesPartialFile(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 2048)
	as, srv := newArchiveServer(t, payload)
	dir := t.TempDir()
	target := filepath.Join(dir, "corpus.tar.gz")
	require.NoError(t, os.WriteFile(target, payload[:1000], 0o644))

	path, err := fetch.Fetch(context.Background(), fetch.Resource{URL: srv.URL + "/corpus.tar.gz"}, dir, fetch.Options{Resume: true})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "bytes=1000-", as.lastRange.Load())
}

func TestFetchSkipsCompleteVerifiedFile(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 9000)
	as, srv := newArchiveServer(t, payload)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corpus.tar.gz"), payload, 0o644))

	res := fetch.Resource{URL: srv.URL + "/corpus.tar.gz", Checksum: sha256Hex(payload)}
	_, err := fetch.Fetch(context.Background(), res, dir, fetch.Options{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), as.gets.Load(), "complete verified file must not be re-downloaded")
}

func TestFetchChecksumMismatch(t *testing.T) {
	payload := bytes.Repeat([]byte("y"), 5000)
	_, srv := newArchiveServer(t, payload)
	dir := t.TempDir()

	res := fetch.Resource{URL: srv.URL + "/corpus.tar.gz", Checksum: sha256Hex([]byte("other"))}
	_, err := fetch.Fetch(context.Background(), res, dir, fetch.Options{})

	var integrity *fetch.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "sha256", integrity.Kind)

	// The file stays on disk for inspection.
	_, statErr := os.Stat(filepath.Join(dir, "corpus.tar.gz"))
	assert.NoError(t, statErr)
}

func TestFetchMD5Checksum(t *testing.T) {
	payload := []byte("md5 checked payload")
	_, srv := newArchiveServer(t, payload)
	dir := t.TempDir()

	sum := md5.Sum(payload)
	res := fetch.Resource{
		URL:          srv.URL + "/corpus.tar.gz",
		Checksum:     hex.EncodeToString(sum[:]),
		ChecksumKind: "md5",
	}
	_, err := fetch.Fetch(context.Background(), res, dir, fetch.Options{})
	assert.NoError(t, err)
}

func TestVerifyCorruptedByte(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("z"), 4096)
	path := filepath.Join(dir, "archive")
	require.NoError(t, os.WriteFile(path, payload, 0o644))
	want := sha256Hex(payload)

	require.NoError(t, fetch.Verify(path, want, "sha256"))

	payload[100] ^= 0xff
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	var integrity *fetch.IntegrityError
	assert.ErrorAs(t, fetch.Verify(path, want, "sha256"), &integrity)
}

func TestVerifyUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.Error(t, fetch.Verify(path, "00", "crc32"))
}
