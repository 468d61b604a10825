package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const WAVHeaderSize = 44

var ErrUnsupportedFormat = errors.New("audio: only mono 16-bit PCM is supported")

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WAVHeader builds the canonical 44-byte RIFF/WAVE header for sampleCount
// samples per channel of linear PCM.
func WAVHeader(sampleCount int, f Format) ([WAVHeaderSize]byte, error) {
	var out [WAVHeaderSize]byte
	if sampleCount < 0 {
		return out, fmt.Errorf("audio: negative sample count %d", sampleCount)
	}
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BitsPerSample <= 0 || f.BitsPerSample%8 != 0 {
		return out, fmt.Errorf("audio: invalid format %+v", f)
	}

	blockAlign := f.Channels * f.BytesPerSample()
	dataSize := uint32(sampleCount * blockAlign)
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return out, fmt.Errorf("audio: write wav header: %w", err)
	}
	copy(out[:], buf.Bytes())
	return out, nil
}

// WriteWAV writes header and little-endian samples to w, converting the
// samples in bounded pieces so no second full-size copy is allocated.
func WriteWAV(w io.Writer, samples []int16, f Format) error {
	if !f.IsMonoPCM16() {
		return ErrUnsupportedFormat
	}
	header, err := WAVHeader(len(samples), f)
	if err != nil {
		return err
	}
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	const piece = 2048
	scratch := make([]byte, 0, piece*2)
	for start := 0; start < len(samples); start += piece {
		end := min(start+piece, len(samples))
		scratch = AppendPCM16(scratch[:0], samples[start:end]...)
		if _, err := w.Write(scratch); err != nil {
			return err
		}
	}
	return nil
}

// EncodeWAVBase64 wraps samples in a WAV container and returns it base64
// encoded. Anything other than mono 16-bit input yields ErrUnsupportedFormat
// and an empty payload.
func EncodeWAVBase64(samples []int16, f Format) (string, error) {
	if !f.IsMonoPCM16() {
		return "", ErrUnsupportedFormat
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("audio: cannot encode empty recording")
	}
	total := WAVHeaderSize + len(samples)*2
	var sb strings.Builder
	sb.Grow(((total + 2) / 3) * 4)

	enc := NewBase64Writer(&sb)
	if err := WriteWAV(enc, samples, f); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
