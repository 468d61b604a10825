package audio

import "encoding/binary"

// AppendPCM16 appends samples to dst as little-endian 16-bit pairs.
func AppendPCM16(dst []byte, samples ...int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

func PCM16FromBytes(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}
