// Package ffmpeg wraps the external ffmpeg binary for format
// conversion and clip extraction.
package ffmpeg

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"dataprep/internal/audio"
)

const stderrTail = 512

// ToolError reports a non-zero exit from an external tool.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// ConvertOptions mirror the transcoder's knobs. Zero values fall back
// to a 16 kbps mono stream at the source sample rate.
type ConvertOptions struct {
	Bitrate    string // e.g. "16k"
	Channels   int
	SampleRate int // 0 keeps the source rate
	Format     string
}

// Convert transcodes an audio file, writing the output next to the
// input as <stem>_<rate>_<bitrate>.<format>, and returns the output
// path. An existing output is overwritten.
func Convert(path string, opts ConvertOptions) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("audio path %s is not a file", path)
	}

	if opts.Bitrate == "" {
		opts.Bitrate = "16k"
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}
	if opts.Format == "" {
		opts.Format = "wav"
	}
	if opts.SampleRate == 0 {
		rate, err := sourceSampleRate(path)
		if err != nil {
			return "", fmt.Errorf("probe sample rate of %s: %w", path, err)
		}
		opts.SampleRate = rate
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	output := fmt.Sprintf("%s_%d_%s.%s", stem, opts.SampleRate, opts.Bitrate, opts.Format)
	removeStale(output)

	args := []string{
		"-i", path,
		"-b:a", opts.Bitrate,
		"-ac", strconv.Itoa(opts.Channels),
		"-map", "a",
		"-ar", strconv.Itoa(opts.SampleRate),
		output,
		"-loglevel", "error",
		"-hide_banner",
	}
	if err := run("ffmpeg", args); err != nil {
		return "", err
	}
	return output, nil
}

// Cut extracts [start, end] from an audio file into outDir. Timestamps
// use the HH:MM:SS.mmm form; the output name embeds their digits.
func Cut(path, start, end, outDir string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	if err := validTimestamp(start); err != nil {
		return "", err
	}
	if err := validTimestamp(end); err != nil {
		return "", err
	}

	output := filepath.Join(outDir, CutName(path, start, end))
	removeStale(output)

	args := []string{"-ss", start, "-to", end, "-i", path, output}
	if err := run("ffmpeg", args); err != nil {
		return "", err
	}
	return output, nil
}

// CutName derives the clip filename from the source name and the
// timestamps, digits only.
func CutName(path, start, end string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%s_%s%s", stem, timestampDigits(start), timestampDigits(end), ext)
}

var (
	nonDigits   = regexp.MustCompile(`[^0-9]`)
	timestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3}$`)
)

func timestampDigits(ts string) string {
	return nonDigits.ReplaceAllString(ts, "")
}

func validTimestamp(ts string) error {
	if !timestampRe.MatchString(ts) {
		return fmt.Errorf("timestamp %q is not in HH:MM:SS.mmm form", ts)
	}
	return nil
}

func sourceSampleRate(path string) (int, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		_, rate, err := audio.ProbeWAV(path)
		return rate, err
	}
	info, err := audio.Probe(path)
	if err != nil {
		return 0, err
	}
	return info.SampleRate, nil
}

func removeStale(output string) {
	if _, err := os.Stat(output); err == nil {
		log.Printf("overwriting %s", output)
		os.Remove(output)
	}
}

func run(tool string, args []string) error {
	cmd := exec.Command(tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		return &ToolError{Tool: tool, Args: args, Stderr: msg, Err: err}
	}
	return nil
}
