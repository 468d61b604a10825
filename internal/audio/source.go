// Package audio defines the capture source contract and the PCM helpers used
// to package recordings: a canonical WAV header and a chunk-invariant base64
// encoder.
package audio

import "io"

// Source yields mono signed 16-bit PCM in capture order. Read never blocks: it
// copies up to len(dst) available samples and returns how many it copied,
// which is 0 when nothing is buffered. Discard drops whatever was captured
// before the call so the next Read starts from live audio.
type Source interface {
	Ready() bool
	Read(dst []int16) int
	Discard()
	io.Closer
}

type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

func (f Format) BytesPerSample() int {
	return f.BitsPerSample / 8
}

func (f Format) IsMonoPCM16() bool {
	return f.Channels == 1 && f.BitsPerSample == 16
}
