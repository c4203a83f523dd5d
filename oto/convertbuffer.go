package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToLE writes the samples of buff as 32-bit little-endian floats
// into dst and returns the number of samples written, which is limited by
// the length of dst. It does not allocate.
func FloatBufferToLE(dst []byte, buff []float32) int {
	n := min(len(buff), len(dst)/bytesPerSample)
	for i, v := range buff[:n] {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(v))
	}
	return n
}
