package archive

import (
	"path/filepath"
	"strings"
)

// RootResolver infers the dataset root directory from the relative
// names of extracted entries, joined back onto destDir.
type RootResolver func(destDir string, names []string) (string, error)

// FirstEntryRoot takes the first path component of the first extracted
// entry. This matches how most released corpora are laid out (a single
// top-level folder), but archives that list a stray file first will
// mislead it; use CommonPrefixRoot for those.
func FirstEntryRoot(destDir string, names []string) (string, error) {
	first := strings.Split(filepath.ToSlash(names[0]), "/")[0]
	return filepath.Join(destDir, first), nil
}

// CommonPrefixRoot returns the deepest directory shared by every
// entry. Falls back to destDir when entries share no prefix.
func CommonPrefixRoot(destDir string, names []string) (string, error) {
	prefix := splitPath(names[0])
	prefix = prefix[:len(prefix)-1] // drop the filename
	for _, name := range names[1:] {
		parts := splitPath(name)
		parts = parts[:len(parts)-1]
		if len(parts) < len(prefix) {
			prefix = prefix[:len(parts)]
		}
		for i := range prefix {
			if prefix[i] != parts[i] {
				prefix = prefix[:i]
				break
			}
		}
	}
	if len(prefix) == 0 {
		return destDir, nil
	}
	return filepath.Join(append([]string{destDir}, prefix...)...), nil
}

func splitPath(name string) []string {
	return strings.Split(filepath.ToSlash(name), "/")
}
