package testsupport

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// WriteWAV writes a mono 16-bit PCM WAV file containing a 440 Hz sine
// at half amplitude. Loud enough that the WADA silence filter keeps
// most samples.
func WriteWAV(t *testing.T, path string, seconds float64, sampleRate int) {
	t.Helper()

	numSamples := int(seconds * float64(sampleRate))
	data := make([]byte, numSamples*2)
	for i := 0; i < numSamples; i++ {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v*32767)))
	}

	if err := os.WriteFile(path, WAVBytes(data, sampleRate, 1, 16), 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// WAVBytes assembles a RIFF/WAVE container around raw PCM data.
func WAVBytes(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf := make([]byte, 0, 44+len(pcm))
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+len(pcm)))
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, uint16(channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(bitsPerSample))

	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pcm)))
	buf = append(buf, pcm...)

	return buf
}
