package harmonic

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

type (
	// WavSink streams mono audio into a .wav file. The sizes in the header
	// are patched when the sink is closed, so the writer must be seekable.
	WavSink struct {
		w          io.WriteSeeker
		sampleRate int
		pcm16      bool
		samples    int
		scratch    []byte
		closed     bool
	}

	riffChunk struct {
		ID   [4]byte
		Size uint32
	}

	wavFormat struct {
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}
)

const (
	wavPCM   = 1
	wavFloat = 3
)

var errSinkClosed = errors.New("wav sink is closed")

// Wav returns the buffer as a mono .wav file; either 16-bit PCM or 32-bit IEEE
// float.
func (buffer AudioBuffer) Wav(sampleRate int, pcm16 bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeWavHeader(&buf, len(buffer), sampleRate, pcm16); err != nil {
		return nil, fmt.Errorf("could not write wav header: %w", err)
	}
	buf.Write(buffer.appendRaw(nil, pcm16))
	return buf.Bytes(), nil
}

// Raw returns the samples without any header, little-endian.
func (buffer AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	return buffer.appendRaw(nil, pcm16), nil
}

func (buffer AudioBuffer) appendRaw(dst []byte, pcm16 bool) []byte {
	for _, v := range buffer {
		if pcm16 {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(toPCM16(v)))
		} else {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
		}
	}
	return dst
}

func toPCM16(v float32) int16 {
	s := math.Round(float64(v) * math.MaxInt16)
	return int16(max(min(s, math.MaxInt16), -math.MaxInt16))
}

// writeWavHeader writes the RIFF header for numSamples mono samples. Float
// files carry the extended fmt chunk and a fact chunk.
// See http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
func writeWavHeader(w io.Writer, numSamples, sampleRate int, pcm16 bool) error {
	bytesPerSample, format, fmtSize, riffSize := 4, uint16(wavFloat), uint32(18), 50
	if pcm16 {
		bytesPerSample, format, fmtSize, riffSize = 2, wavPCM, 16, 36
	}
	dataSize := uint32(bytesPerSample * numSamples)
	parts := []any{
		riffChunk{[4]byte{'R', 'I', 'F', 'F'}, uint32(riffSize) + dataSize},
		[4]byte{'W', 'A', 'V', 'E'},
		riffChunk{[4]byte{'f', 'm', 't', ' '}, fmtSize},
		wavFormat{
			Format:        format,
			Channels:      1,
			SampleRate:    uint32(sampleRate),
			ByteRate:      uint32(sampleRate * bytesPerSample),
			BlockAlign:    uint16(bytesPerSample),
			BitsPerSample: uint16(8 * bytesPerSample),
		},
	}
	if !pcm16 {
		parts = append(parts,
			uint16(0), // no format extension
			riffChunk{[4]byte{'f', 'a', 'c', 't'}, 4},
			uint32(numSamples))
	}
	parts = append(parts, riffChunk{[4]byte{'d', 'a', 't', 'a'}, dataSize})
	for _, p := range parts {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	return nil
}

// NewWavSink writes a placeholder header to w and returns a sink that appends
// samples after it.
func NewWavSink(w io.WriteSeeker, sampleRate int, pcm16 bool) (*WavSink, error) {
	if err := writeWavHeader(w, 0, sampleRate, pcm16); err != nil {
		return nil, fmt.Errorf("could not write wav header: %w", err)
	}
	return &WavSink{w: w, sampleRate: sampleRate, pcm16: pcm16}, nil
}

func (s *WavSink) WriteAudio(buffer AudioBuffer) error {
	if s.closed {
		return errSinkClosed
	}
	s.scratch = buffer.appendRaw(s.scratch[:0], s.pcm16)
	if _, err := s.w.Write(s.scratch); err != nil {
		return fmt.Errorf("could not write samples: %w", err)
	}
	s.samples += len(buffer)
	return nil
}

// Close rewrites the header with the final length. It does not close the
// underlying writer.
func (s *WavSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if _, err := s.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("could not rewind wav file: %w", err)
	}
	if err := writeWavHeader(s.w, s.samples, s.sampleRate, s.pcm16); err != nil {
		return fmt.Errorf("could not finalize wav header: %w", err)
	}
	_, err := s.w.Seek(0, io.SeekEnd)
	return err
}

func (s *WavSink) NumSamples() int { return s.samples }
