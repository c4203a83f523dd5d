// Package oto plays harmonic.AudioSources on the default audio device, using
// github.com/ebitengine/oto/v3 with mono float32 output.
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/harmonicpad/harmonic"
)

type (
	// OtoContext implements harmonic.AudioContext.
	OtoContext struct {
		context    *oto.Context
		sampleRate int
	}

	// OtoReader pulls audio from a source and hands it to oto as bytes.
	OtoReader struct {
		source    harmonic.AudioSource
		tmpBuffer harmonic.AudioBuffer
		done      chan struct{}
		closeOnce sync.Once
		err       error
	}

	// OtoPlayer is a playing source. Wait returns when the source has ended
	// and everything has been played.
	OtoPlayer struct {
		player *oto.Player
		reader *OtoReader
	}
)

const bytesPerSample = 4

// otoBufferSize is the size of the device buffer.
const otoBufferSize = 20 * time.Millisecond

// NewContext creates the oto context. There can be only one per process.
func NewContext(sampleRate int) (*OtoContext, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

// Play starts playing the source right away.
func (c *OtoContext) Play(source harmonic.AudioSource) harmonic.CloserWaiter {
	reader := &OtoReader{source: source, done: make(chan struct{})}
	player := c.context.NewPlayer(reader)
	player.Play()
	return &OtoPlayer{player: player, reader: reader}
}

// Close suspends the device. oto does not support closing a context.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Read implements io.Reader. It is called from oto's audio thread.
func (o *OtoReader) Read(p []byte) (int, error) {
	samples := len(p) / bytesPerSample
	if cap(o.tmpBuffer) < samples {
		o.tmpBuffer = make(harmonic.AudioBuffer, samples)
	}
	buf := o.tmpBuffer[:samples]
	n, err := o.source.ReadAudio(buf)
	n = FloatBufferToLE(p, buf[:n])
	if err != nil {
		if !errors.Is(err, io.EOF) {
			o.err = err
		}
		o.finish()
		return n * bytesPerSample, io.EOF
	}
	return n * bytesPerSample, nil
}

func (o *OtoReader) finish() {
	o.closeOnce.Do(func() { close(o.done) })
}

// Err returns the error that ended the playback, if any.
func (o *OtoPlayer) Err() error {
	select {
	case <-o.reader.done:
		if o.reader.err != nil {
			return o.reader.err
		}
	default:
	}
	return o.player.Err()
}

func (o *OtoPlayer) Wait() {
	<-o.reader.done
	for o.player.IsPlaying() {
		time.Sleep(time.Millisecond)
	}
}

// Close stops the playback and closes the source.
func (o *OtoPlayer) Close() error {
	o.reader.finish()
	err := o.player.Close()
	if cerr := o.reader.source.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
