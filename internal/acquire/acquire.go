// Package acquire fans a named set of remote resources out to the
// fetcher and extractor, sequentially or via a bounded worker pool.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dataprep/internal/archive"
	"dataprep/internal/fetch"
	"dataprep/internal/progress"
)

// Entry names one resource of a batch. Entries are processed in slice
// order.
type Entry struct {
	Name     string
	Resource fetch.Resource
}

// Result reports the outcome for a single entry. Every submitted entry
// gets exactly one Result, failures included.
type Result struct {
	Name    string
	URL     string
	Dir     string
	Size    int64
	Elapsed time.Duration
	Err     error
}

// Options control a batch run.
type Options struct {
	// Parallel runs entries on a worker pool instead of sequentially.
	Parallel bool
	// Workers bounds the pool; defaults to the CPU count.
	Workers int
	// Resume, Overwrite and Progress pass through to fetch/extract.
	Resume    bool
	Overwrite bool
	Progress  bool
	// Root overrides dataset root resolution per entry.
	Root archive.RootResolver
	// Client overrides the HTTP client.
	Client *http.Client
}

// AcquireAll downloads and extracts every entry under destDir. Each
// entry gets its own pre-created subdirectory, so workers never write
// to overlapping paths; entries sharing a name (one dataset split into
// several archives) are further separated by archive filename. Results
// come back in entry order; the returned error joins all per-entry
// failures and is nil when everything succeeded.
func AcquireAll(ctx context.Context, entries []Entry, destDir string, opts Options) ([]Result, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}

	// One acquisition per destination at a time; concurrent runs would
	// race on partial downloads.
	lock := flock.New(filepath.Join(destDir, ".dataprep.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("destination %s is locked by another acquisition", destDir)
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	log.Printf("acquisition %s: %d entries -> %s", runID, len(entries), destDir)

	dirs := entryDirs(entries, destDir)
	results := make([]Result, len(entries))
	if opts.Parallel {
		err = runPool(ctx, entries, dirs, opts, results)
	} else {
		err = runSequential(ctx, entries, dirs, opts, results)
	}
	if err != nil {
		return results, err
	}

	var failures []error
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return results, errors.Join(failures...)
}

// entryDirs assigns each entry its own extraction directory. Names are
// normally distinct, but a dataset spread over several archives repeats
// its name; those entries get a subdirectory per archive so parallel
// workers never write the same path.
func entryDirs(entries []Entry, destDir string) []string {
	nameCount := make(map[string]int, len(entries))
	for _, e := range entries {
		nameCount[e.Name]++
	}

	dirs := make([]string, len(entries))
	for i, e := range entries {
		if nameCount[e.Name] > 1 {
			dirs[i] = filepath.Join(destDir, e.Name, archiveStem(e.Resource.URL))
		} else {
			dirs[i] = filepath.Join(destDir, e.Name)
		}
	}
	return dirs
}

// archiveStem is the archive filename up to its first dot, e.g.
// "train-clean-100" for ".../train-clean-100.tar.gz".
func archiveStem(rawURL string) string {
	base := path.Base(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func runSequential(ctx context.Context, entries []Entry, dirs []string, opts Options, results []Result) error {
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Printf("downloading %s...", entry.Name)
		results[i] = acquireOne(ctx, entry, dirs[i], opts)
	}
	return nil
}

func runPool(ctx context.Context, entries []Entry, dirs []string, opts Options, results []Result) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	// Bars from individual fetches would interleave across workers.
	entryOpts := opts
	entryOpts.Progress = false

	tasks := make(chan int, len(entries))
	var done int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				results[i] = acquireOne(ctx, entries[i], dirs[i], entryOpts)
				atomic.AddInt64(&done, 1)
			}
		}()
	}

	for i := range entries {
		tasks <- i
	}
	close(tasks)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	bar := progress.Count(len(entries), "acquiring", opts.Progress)
	var seen int64
	for {
		select {
		case <-finished:
			bar.Set(len(entries))
			bar.Finish()
			return nil
		case <-time.After(200 * time.Millisecond):
			if n := atomic.LoadInt64(&done); n > seen {
				bar.Add(int(n - seen))
				seen = n
			}
		}
	}
}

// acquireOne runs fetch+extract for a single entry inside its own
// directory. Errors are recorded, never thrown past the entry.
func acquireOne(ctx context.Context, entry Entry, entryDir string, opts Options) (result Result) {
	result = Result{Name: entry.Name, URL: entry.Resource.URL}
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	if err := os.MkdirAll(entryDir, 0o755); err != nil {
		result.Err = err
		return result
	}

	archivePath, err := fetch.Fetch(ctx, entry.Resource, entryDir, fetch.Options{
		Resume:   opts.Resume,
		Progress: opts.Progress,
		Client:   opts.Client,
	})
	if err != nil {
		result.Err = err
		return result
	}
	if fi, err := os.Stat(archivePath); err == nil {
		result.Size = fi.Size()
	}

	log.Printf("extracting %s...", archivePath)
	root, err := archive.Extract(archivePath, entryDir, archive.Options{
		Overwrite: opts.Overwrite,
		Root:      opts.Root,
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.Dir = root
	return result
}
