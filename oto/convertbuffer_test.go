package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/harmonicpad/harmonic/oto"
)

func TestFloatBufferToLE(t *testing.T) {
	samples := []float32{0, 1, -1, 0.25, float32(math.Pi)}
	dst := make([]byte, 4*len(samples))
	if n := oto.FloatBufferToLE(dst, samples); n != len(samples) {
		t.Fatalf("converted %d samples, want %d", n, len(samples))
	}
	for i, want := range samples {
		got := math.Float32frombits(binary.LittleEndian.Uint32(dst[4*i:]))
		if got != want {
			t.Errorf("sample %d = %v, want %v", i, got, want)
		}
	}
}

func TestFloatBufferToLEIsLimitedByDst(t *testing.T) {
	dst := make([]byte, 10)
	if n := oto.FloatBufferToLE(dst, []float32{1, 2, 3, 4}); n != 2 {
		t.Errorf("converted %d samples into 10 bytes, want 2", n)
	}
	allocs := testing.AllocsPerRun(10, func() {
		oto.FloatBufferToLE(dst, []float32{1, 2})
	})
	if allocs != 0 {
		t.Errorf("FloatBufferToLE allocs/op = %.2f, want 0", allocs)
	}
}
