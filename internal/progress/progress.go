// Package progress wraps terminal progress bars so pipeline code can
// request one unconditionally; bars render only on a TTY.
package progress

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Enabled reports whether a requested bar should actually draw.
func Enabled(want bool) bool {
	return want && isatty.IsTerminal(os.Stdout.Fd())
}

// Bytes returns a byte-count bar. total may be -1 for unknown sizes.
func Bytes(total int64, desc string, want bool) *progressbar.ProgressBar {
	if !Enabled(want) {
		return progressbar.DefaultSilent(total)
	}
	return progressbar.DefaultBytes(total, desc)
}

// Count returns an item-count bar.
func Count(total int, desc string, want bool) *progressbar.ProgressBar {
	if !Enabled(want) {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.Default(int64(total), desc)
}
