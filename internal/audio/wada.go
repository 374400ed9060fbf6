package audio

import (
	"errors"
	"math"
)

// WADASNR estimates signal-to-noise ratio from waveform amplitude
// distribution (WADA). Works on PCM WAV files; returns a value in
// [0, 50] dB rounded to one decimal.
func WADASNR(path string) (float64, error) {
	samples, _, err := DecodeWAV(path)
	if err != nil {
		return 0, err
	}
	return wadaSNR(samples)
}

func wadaSNR(samples []float64) (float64, error) {
	if len(samples) < 1000 {
		return 0, errors.New("audio too short")
	}

	// Adaptive silence threshold: 10% of overall RMS, clamped.
	var sumSq float64
	for _, s := range samples {
		sumSq += s * s
	}
	rmsAll := math.Sqrt(sumSq / float64(len(samples)))
	threshold := rmsAll * 0.1
	if threshold < 0.001 {
		threshold = 0.001
	}
	if threshold > 0.01 {
		threshold = 0.01
	}

	var filtered []float64
	for _, s := range samples {
		if math.Abs(s) > threshold {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) < 500 {
		return 0, errors.New("not enough non-silent samples")
	}

	var sumAbs, sumSqF float64
	for _, s := range filtered {
		sumAbs += math.Abs(s)
		sumSqF += s * s
	}

	n := float64(len(filtered))
	meanAbs := sumAbs / n
	rms := math.Sqrt(sumSqF / n)
	if rms < 1e-10 {
		return 0, errors.New("signal too quiet")
	}

	// Gamma approaches 0.707 for pure Gaussian noise.
	gamma := meanAbs / rms
	diff := gamma - 0.707
	if diff < 0.001 {
		diff = 0.001
	}

	snr := -10 * math.Log10(diff/0.091)
	if snr < 0 {
		snr = 0
	}
	if snr > 50 {
		snr = 50
	}

	return math.Round(snr*10) / 10, nil
}
