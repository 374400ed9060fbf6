package fetch

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

const verifyChunkSize = 1024 * 1024

// IntegrityError reports a checksum mismatch after download. The file
// is left on disk for inspection.
type IntegrityError struct {
	Path string
	Kind string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s (%s): want %s, got %s (delete the file manually and retry)",
		e.Path, e.Kind, e.Want, e.Got)
}

// Verify recomputes the file's checksum by streaming it in fixed-size
// chunks. kind is "sha256" (default) or "md5".
func Verify(path, want, kind string) error {
	kind = checksumKind(kind)

	var h hash.Hash
	switch kind {
	case "sha256":
		h = sha256.New()
	case "md5":
		h = md5.New()
	default:
		return fmt.Errorf("unsupported checksum kind %q", kind)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, verifyChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return err
	}

	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, want) {
		return &IntegrityError{Path: path, Kind: kind, Want: strings.ToLower(want), Got: got}
	}
	return nil
}

func checksumKind(kind string) string {
	if kind == "" {
		return "sha256"
	}
	return strings.ToLower(kind)
}
