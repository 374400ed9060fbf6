// Package archive unpacks tar-family and zip containers, probing the
// format rather than trusting file extensions.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedArchive is returned when neither the tar nor the
	// zip probe succeeds.
	ErrUnsupportedArchive = errors.New("unsupported archive format (only tar, tar.gz, tgz, tar.bz2 and zip)")
	// ErrEmptyArchive is returned for archives with zero file entries.
	ErrEmptyArchive = errors.New("archive contains no files")
)

// Options control extraction.
type Options struct {
	// Overwrite replaces files that already exist under the
	// destination; otherwise existing files are skipped.
	Overwrite bool
	// Root resolves the dataset root directory from the extracted
	// entry names. Defaults to FirstEntryRoot.
	Root RootResolver
}

// Extract unpacks an archive into destDir and returns the inferred
// dataset root directory. The archive is probed first as a tar-family
// container, then as zip.
func Extract(archivePath, destDir string, opts Options) (string, error) {
	names, tarErr := extractTar(archivePath, destDir, opts.Overwrite)
	if tarErr != nil {
		if !isFormatError(tarErr) {
			return "", tarErr
		}
		var zipErr error
		names, zipErr = extractZip(archivePath, destDir, opts.Overwrite)
		if zipErr != nil {
			if errors.Is(zipErr, zip.ErrFormat) {
				return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, archivePath)
			}
			return "", zipErr
		}
	}

	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyArchive, archivePath)
	}

	resolve := opts.Root
	if resolve == nil {
		resolve = FirstEntryRoot
	}
	return resolve(destDir, names)
}

// extractTar unpacks a tar container, transparently handling gzip and
// bzip2 compression. Returns the relative names of all file entries,
// including skipped ones.
func extractTar(archivePath, destDir string, overwrite bool) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompress(f)
	if err != nil {
		return nil, err
	}

	tr := tar.NewReader(r)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar %s: %w", archivePath, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return nil, err
		}
		names = append(names, hdr.Name)

		if skipExisting(target, overwrite) {
			continue
		}
		if err := writeEntry(target, tr); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func extractZip(archivePath, destDir string, overwrite bool) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var names []string
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		target, err := securePath(destDir, entry.Name)
		if err != nil {
			return nil, err
		}
		names = append(names, entry.Name)

		if skipExisting(target, overwrite) {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, err
		}
		err = writeEntry(target, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

// decompress sniffs the compression magic and wraps the reader
// accordingly. Plain tar passes through untouched.
func decompress(f *os.File) (io.Reader, error) {
	magic := make([]byte, 3)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, tar.ErrHeader
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(magic, []byte{0x1f, 0x8b}):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, tar.ErrHeader
		}
		return gz, nil
	case bytes.HasPrefix(magic, []byte("BZh")):
		return bzip2.NewReader(f), nil
	default:
		return f, nil
	}
}

func skipExisting(target string, overwrite bool) bool {
	if overwrite {
		return false
	}
	if _, err := os.Stat(target); err == nil {
		log.Printf("%s already extracted, skipping", target)
		return true
	}
	return false
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

func isFormatError(err error) bool {
	return errors.Is(err, tar.ErrHeader) ||
		errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
