package testsupport

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"testing"
)

// File is one archive entry; order is preserved so tests can rely on
// first-entry root resolution.
type File struct {
	Name string
	Body string
}

// TarGzBytes builds a gzip-compressed tar archive in memory.
func TarGzBytes(t *testing.T, files []File) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, f := range files {
		hdr := &tar.Header{
			Name: f.Name,
			Mode: 0o644,
			Size: int64(len(f.Body)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", f.Name, err)
		}
		if _, err := tw.Write([]byte(f.Body)); err != nil {
			t.Fatalf("tar body %s: %v", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// WriteTarGz writes a tar.gz archive to path.
func WriteTarGz(t *testing.T, path string, files []File) {
	t.Helper()
	if err := os.WriteFile(path, TarGzBytes(t, files), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ZipBytes builds a zip archive in memory.
func ZipBytes(t *testing.T, files []File) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", f.Name, err)
		}
		if _, err := w.Write([]byte(f.Body)); err != nil {
			t.Fatalf("zip body %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes a zip archive to path.
func WriteZip(t *testing.T, path string, files []File) {
	t.Helper()
	if err := os.WriteFile(path, ZipBytes(t, files), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
