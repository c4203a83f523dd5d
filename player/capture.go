package player

import (
	"errors"
	"sync/atomic"

	"github.com/harmonicpad/harmonic"
)

// Capture is an AudioSink that can be written from the audio callback. The
// blocks are copied into preallocated buffers and written to the underlying
// sink by a goroutine of their own. When the writer falls behind and no
// buffer is free, the block is dropped and counted.
type Capture struct {
	sink    harmonic.AudioSink
	free    chan *harmonic.AudioBuffer
	blocks  chan *harmonic.AudioBuffer
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Int64
	err     error // owned by the writer until done is closed
}

const (
	captureBuffers    = 32
	captureBufferSize = 8192 // samples
)

var ErrCaptureClosed = errors.New("capture is closed")

// NewCapture starts the writer goroutine. The capture owns sink and closes it
// in Close.
func NewCapture(sink harmonic.AudioSink) *Capture {
	c := &Capture{
		sink:   sink,
		free:   make(chan *harmonic.AudioBuffer, captureBuffers),
		blocks: make(chan *harmonic.AudioBuffer, captureBuffers),
		done:   make(chan struct{}),
	}
	for range captureBuffers {
		b := make(harmonic.AudioBuffer, 0, captureBufferSize)
		c.free <- &b
	}
	go c.write()
	return c
}

// WriteAudio queues a copy of buffer. It never blocks, and does not allocate
// for blocks of up to 8192 samples. It must not be called concurrently with
// Close.
func (c *Capture) WriteAudio(buffer harmonic.AudioBuffer) error {
	if c.closed.Load() {
		return ErrCaptureClosed
	}
	var b *harmonic.AudioBuffer
	select {
	case b = <-c.free:
	default:
		c.dropped.Add(1)
		return nil
	}
	*b = append((*b)[:0], buffer...)
	c.blocks <- b // cannot block: there are as many slots as buffers
	return nil
}

func (c *Capture) write() {
	defer close(c.done)
	for b := range c.blocks {
		if c.err == nil {
			c.err = c.sink.WriteAudio(*b)
		}
		c.free <- b
	}
}

// Dropped returns the number of blocks lost because the writer was behind.
func (c *Capture) Dropped() int { return int(c.dropped.Load()) }

// Close waits until every queued block is written and closes the sink. The
// first error of the sink is returned.
func (c *Capture) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.blocks)
	<-c.done
	return errors.Join(c.err, c.sink.Close())
}
