package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var errNoDataChunk = errors.New("data chunk not found")

type wavFormat struct {
	audioFormat   uint16
	numChannels   uint16
	sampleRate    uint32
	byteRate      uint32
	bitsPerSample uint16
}

// ProbeWAV reads duration and sample rate from a WAV header without
// decoding the payload. The data chunk is sized, never read.
func ProbeWAV(path string) (float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if err := readRIFFHeader(f); err != nil {
		return 0, 0, err
	}

	var format *wavFormat
	for {
		id, size, err := readChunkHeader(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, err
		}

		switch id {
		case "fmt ":
			format, err = readFormatChunk(f, size)
			if err != nil {
				return 0, 0, err
			}
		case "data":
			if format == nil {
				return 0, 0, errors.New("data chunk before fmt chunk")
			}
			if format.byteRate == 0 {
				return 0, 0, errors.New("zero byte rate")
			}
			duration := float64(size) / float64(format.byteRate)
			return duration, int(format.sampleRate), nil
		default:
			if err := skipChunk(f, size); err != nil {
				return 0, 0, err
			}
		}
	}

	return 0, 0, errNoDataChunk
}

// DecodeWAV reads a PCM WAV file and returns normalized samples in
// [-1, 1] from the first channel, plus the sample rate.
func DecodeWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	if err := readRIFFHeader(f); err != nil {
		return nil, 0, err
	}

	var format *wavFormat
	for {
		id, size, err := readChunkHeader(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		switch id {
		case "fmt ":
			format, err = readFormatChunk(f, size)
			if err != nil {
				return nil, 0, err
			}
		case "data":
			if format == nil {
				return nil, 0, errors.New("data chunk before fmt chunk")
			}
			samples, err := decodeSamples(f, size, format)
			if err != nil {
				return nil, 0, err
			}
			return samples, int(format.sampleRate), nil
		default:
			if err := skipChunk(f, size); err != nil {
				return nil, 0, err
			}
		}
	}

	return nil, 0, errNoDataChunk
}

func readRIFFHeader(f *os.File) error {
	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return errors.New("not a valid WAV file")
	}
	return nil
}

func readChunkHeader(f *os.File) (string, uint32, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", 0, io.EOF
		}
		return "", 0, err
	}
	return string(header[0:4]), binary.LittleEndian.Uint32(header[4:8]), nil
}

func readFormatChunk(f *os.File, size uint32) (*wavFormat, error) {
	if size < 16 {
		return nil, errors.New("fmt chunk too short")
	}
	data, err := chunkData(f, size)
	if err != nil {
		return nil, err
	}
	format := &wavFormat{
		audioFormat:   binary.LittleEndian.Uint16(data[0:2]),
		numChannels:   binary.LittleEndian.Uint16(data[2:4]),
		sampleRate:    binary.LittleEndian.Uint32(data[4:8]),
		byteRate:      binary.LittleEndian.Uint32(data[8:12]),
		bitsPerSample: binary.LittleEndian.Uint16(data[14:16]),
	}
	if format.audioFormat != 1 {
		return nil, errors.New("only PCM format supported")
	}
	if format.numChannels == 0 {
		return nil, errors.New("zero channels")
	}
	return format, nil
}

func skipChunk(f *os.File, size uint32) error {
	skip := int64(size)
	if size%2 != 0 {
		skip++ // chunks are 2-byte aligned
	}
	_, err := f.Seek(skip, io.SeekCurrent)
	return err
}

// chunkData reads a chunk payload, checking the declared size against
// the bytes actually left in the file before allocating.
func chunkData(f *os.File, size uint32) ([]byte, error) {
	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if int64(size) > fi.Size()-offset {
		return nil, fmt.Errorf("chunk size %d exceeds remaining file bytes", size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeSamples(f *os.File, size uint32, format *wavFormat) ([]float64, error) {
	data, err := chunkData(f, size)
	if err != nil {
		return nil, err
	}

	bytesPerSample := int(format.bitsPerSample / 8)
	if bytesPerSample == 0 {
		return nil, errors.New("unsupported bit depth")
	}
	frameSize := bytesPerSample * int(format.numChannels)
	numFrames := len(data) / frameSize
	samples := make([]float64, numFrames)

	// First channel only; enough for a noise estimate.
	for i := 0; i < numFrames; i++ {
		offset := i * frameSize

		switch format.bitsPerSample {
		case 8:
			samples[i] = (float64(data[offset]) - 128) / 128
		case 16:
			val := int16(binary.LittleEndian.Uint16(data[offset : offset+2]))
			samples[i] = float64(val) / 32768
		case 24:
			b := data[offset : offset+3]
			val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if val&0x800000 != 0 {
				val |= ^0xFFFFFF
			}
			samples[i] = float64(val) / 8388608
		case 32:
			val := int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
			samples[i] = float64(val) / 2147483648
		default:
			return nil, errors.New("unsupported bit depth")
		}
	}

	return samples, nil
}
