package ffmpeg_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"dataprep/internal/ffmpeg"
)

func TestCutName(t *testing.T) {
	name := ffmpeg.CutName("/data/corpus/reading.wav", "00:01:02.500", "00:01:09.250")
	assert.Equal(t, "reading_000102500_000109250.wav", name)
}

func TestCutRejectsBadTimestamp(t *testing.T) {
	_, err := ffmpeg.Cut("nonexistent.wav", "1:2:3", "00:00:05.000", t.TempDir())
	assert.Error(t, err)
}

func TestConvertMissingInput(t *testing.T) {
	_, err := ffmpeg.Convert("/nonexistent/audio.wav", ffmpeg.ConvertOptions{SampleRate: 16000})
	assert.Error(t, err)
}

func TestToolErrorMessage(t *testing.T) {
	err := &ffmpeg.ToolError{
		Tool:   "ffmpeg",
		Stderr: "invalid data found",
		Err:    errors.New("exit status 1"),
	}
	assert.Contains(t, err.Error(), "ffmpeg")
	assert.Contains(t, err.Error(), "invalid data found")
	assert.Equal(t, "exit status 1", errors.Unwrap(err).Error())
}
