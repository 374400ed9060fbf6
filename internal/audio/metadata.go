package audio

import (
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
)

type Info struct {
	DurationSec float64 `json:"duration_sec"`
	SampleRate  int     `json:"sample_rate"`
	Channels    int     `json:"channels"`
	BitDepth    int     `json:"bit_depth"`
	FileSize    int64   `json:"file_size"`
	Codec       string  `json:"codec"`
	Format      string  `json:"format"`
}

// Probe reads container-level metadata via ffprobe. Used for formats
// the native WAV reader cannot handle.
func Probe(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path)

	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var probe struct {
		Streams []struct {
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			BitsPerSample int    `json:"bits_per_sample"`
			CodecName     string `json:"codec_name"`
		} `json:"streams"`
		Format struct {
			Duration   string `json:"duration"`
			FormatName string `json:"format_name"`
		} `json:"format"`
	}

	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, err
	}

	info := &Info{FileSize: fi.Size()}

	if probe.Format.Duration != "" {
		info.DurationSec, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	}
	info.Format = probe.Format.FormatName

	if len(probe.Streams) > 0 {
		s := probe.Streams[0]
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		info.Channels = s.Channels
		info.BitDepth = s.BitsPerSample
		info.Codec = s.CodecName
	}

	return info, nil
}
