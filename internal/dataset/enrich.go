package dataset

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"dataprep/internal/audio"
	"dataprep/internal/ffmpeg"
	"dataprep/internal/progress"
)

// EnrichOptions control which derived fields are added.
type EnrichOptions struct {
	// Convert transcodes each sample first and rewrites its audio
	// path. A transcoder failure is fatal for the batch.
	Convert *ffmpeg.ConvertOptions
	// SNR computes the WADA noise estimate per sample.
	SNR bool
	// FailFast propagates SNR estimation errors instead of recording
	// the -1.0 sentinel and continuing.
	FailFast bool
	// Speakers, when set, joins each sample against the table using
	// the path segment at SpeakerDepth. A join miss is fatal.
	Speakers     SpeakerTable
	SpeakerDepth int
	// Workers above 1 enriches samples on a worker pool. Every sample
	// is still attempted; fatal errors are joined afterwards.
	Workers int
	// Progress draws a bar over the batch.
	Progress bool
}

// Enrich annotates a copy of samples with derived fields and returns
// it. Duration and sample rate come from the container header only;
// a file that cannot be probed gets the -1 sentinels and the batch
// continues.
func Enrich(samples []Sample, opts EnrichOptions) ([]Sample, error) {
	out := make([]Sample, len(samples))
	copy(out, samples)

	bar := progress.Count(len(out), "enriching", opts.Progress)
	if opts.Workers > 1 && len(out) > 1 {
		if err := enrichPool(out, opts, bar); err != nil {
			return nil, err
		}
	} else {
		for i := range out {
			if err := enrichOne(&out[i], opts); err != nil {
				return nil, err
			}
			bar.Add(1)
		}
	}
	bar.Finish()
	return out, nil
}

// enrichPool fans samples out to a bounded worker set. Each worker
// owns disjoint slice indices, so no locking beyond the channel.
func enrichPool(out []Sample, opts EnrichOptions, bar *progressbar.ProgressBar) error {
	workers := opts.Workers
	if workers > len(out) {
		workers = len(out)
	}

	tasks := make(chan int, len(out))
	errs := make([]error, len(out))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				errs[i] = enrichOne(&out[i], opts)
				bar.Add(1)
			}
		}()
	}

	for i := range out {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	return errors.Join(errs...)
}

func enrichOne(s *Sample, opts EnrichOptions) error {
	if opts.Convert != nil {
		converted, err := ffmpeg.Convert(s.AudioFile, *opts.Convert)
		if err != nil {
			return err
		}
		s.AudioFile = converted
	}

	if opts.Speakers != nil {
		speaker, err := SpeakerFromPath(s.AudioFile, opts.SpeakerDepth)
		if err != nil {
			return err
		}
		info, ok := opts.Speakers[speaker]
		if !ok {
			return &SpeakerNotFoundError{Speaker: speaker, AudioFile: s.AudioFile}
		}
		s.Speaker = info.ID
		s.Gender = info.Gender
	}

	if opts.SNR {
		snr, err := audio.WADASNR(s.AudioFile)
		if err != nil {
			if opts.FailFast {
				return err
			}
			log.Printf("snr estimate failed for %s: %v (recording -1)", s.AudioFile, err)
			snr = -1.0
		}
		s.SNR = snr
	}

	duration, rate, err := probeHeader(s.AudioFile)
	if err != nil {
		log.Printf("%s is not a readable audio file, marking length -1: %v", s.AudioFile, err)
		duration, rate = -1, -1
	}
	s.AudioLen = duration
	s.SampleRate = rate
	return nil
}

// probeHeader reads duration and sample rate without a full decode:
// natively for WAV, via ffprobe for anything else.
func probeHeader(path string) (float64, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return audio.ProbeWAV(path)
	}
	info, err := audio.Probe(path)
	if err != nil {
		return 0, 0, err
	}
	return info.DurationSec, info.SampleRate, nil
}
