// Package harmonic holds the domain types shared by the synthesis engine, its
// control sources and its audio outputs: the engine configuration, mono audio
// buffers, the Synth interface and timed scores of control events.
package harmonic

import (
	"errors"
	"fmt"
	"io"
)

type (
	// AudioBuffer is a buffer of mono audio samples, nominally in range
	// [-1,1].
	AudioBuffer []float32

	// Synth consumes batches of packed control words and renders audio.
	// Apply must be called from the same goroutine as Render; a Synth is not
	// safe for concurrent use.
	Synth interface {
		// Apply decodes and applies one batch of control messages. A
		// malformed batch is rejected as a whole and leaves the synth
		// untouched.
		Apply(batch []uint16) error
		// Render fills buffer completely. Render never fails mid-block.
		Render(buffer AudioBuffer)
		// NumVoices returns the number of voices currently held active.
		NumVoices() int
	}

	// Synther constructs Synths for a configuration.
	Synther interface {
		Name() string
		Synth(config Config) (Synth, error)
	}

	AudioSink interface {
		WriteAudio(buffer AudioBuffer) error
		Close() error
	}

	// AudioSource is pulled by an AudioContext. ReadAudio should fill the
	// whole buffer; io.EOF ends the playback.
	AudioSource interface {
		ReadAudio(buffer AudioBuffer) (n int, err error)
		Close() error
	}

	AudioContext interface {
		Play(source AudioSource) CloserWaiter
		Close() error
	}

	CloserWaiter interface {
		io.Closer
		Wait()
	}

	bufferSource struct {
		buffer AudioBuffer
		pos    int
	}

	teeSource struct {
		source AudioSource
		sink   AudioSink
		err    error
	}
)

// MaxHarmonics is the number of partials a voice can synthesize, and the
// number of phase values reserved for each voice.
const MaxHarmonics = 1 << 3

// Fill renders the whole buffer with synth, applying no control events.
func Fill(synth Synth, buffer AudioBuffer, blockSize int) error {
	if blockSize <= 0 {
		return errors.New("block size must be positive")
	}
	for len(buffer) > 0 {
		n := min(blockSize, len(buffer))
		synth.Render(buffer[:n])
		buffer = buffer[n:]
	}
	return nil
}

// Source returns an AudioSource that plays the buffer once and then returns
// io.EOF.
func (b AudioBuffer) Source() AudioSource {
	return &bufferSource{buffer: b}
}

func (s *bufferSource) ReadAudio(buffer AudioBuffer) (int, error) {
	if s.pos >= len(s.buffer) {
		return 0, io.EOF
	}
	n := copy(buffer, s.buffer[s.pos:])
	s.pos += n
	clear(buffer[n:])
	return n, nil
}

func (s *bufferSource) Close() error {
	s.pos = len(s.buffer)
	return nil
}

// Tee returns an AudioSource that copies everything read from source into
// sink. The first sink error is kept and returned from Close; reading goes on
// regardless. ReadAudio runs in the audio callback, so sink must not block;
// see player.Capture.
func Tee(source AudioSource, sink AudioSink) AudioSource {
	return &teeSource{source: source, sink: sink}
}

func (t *teeSource) ReadAudio(buffer AudioBuffer) (int, error) {
	n, err := t.source.ReadAudio(buffer)
	if t.err == nil && n > 0 {
		t.err = t.sink.WriteAudio(buffer[:n])
	}
	return n, err
}

func (t *teeSource) Close() error {
	return errors.Join(t.source.Close(), t.sink.Close(), t.err)
}

func (b AudioBuffer) String() string {
	return fmt.Sprintf("AudioBuffer(%d samples)", len(b))
}
