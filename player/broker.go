package player

import (
	"sync"
	"time"
)

type (
	// Broker connects the audio callback with the rest of the program. The
	// control sources send batches of control words to ToPlayer; the player
	// sends alerts, levels and finished recordings to ToHost. All sends from
	// the player are non-blocking, so that the audio callback can never dead
	// lock on a slow host.
	//
	// Control batches are passed either as []uint16 or as *[]uint16 borrowed
	// from the broker's pool with GetBatch. The player returns borrowed
	// batches to the pool once they have been applied, so a steady stream of
	// batches does not allocate.
	Broker struct {
		ToPlayer chan any // []uint16, *[]uint16, PanicMsg or RecordingMsg
		ToHost   chan MsgToHost

		batchPool sync.Pool
	}

	// MsgToHost is a message sent from the player to the host. The frequent
	// data (levels and voice count) is not boxed, to avoid allocations. The
	// infrequent messages, like Alert and harmonic.Score, are passed in Data.
	MsgToHost struct {
		HasLevel  bool
		Level     Level
		NumVoices int
		Panic     bool

		Data any
	}

	// PanicMsg silences the player by dropping its synth (true) or creates a
	// new synth (false).
	PanicMsg bool

	// RecordingMsg starts (true) or stops (false) recording the control
	// events. When stopped, the recording is sent to the host as a
	// harmonic.Score.
	RecordingMsg bool
)

const channelSize = 1024

func NewBroker() *Broker {
	return &Broker{
		ToPlayer:  make(chan any, channelSize),
		ToHost:    make(chan MsgToHost, channelSize),
		batchPool: sync.Pool{New: func() any { return &[]uint16{} }},
	}
}

// GetBatch returns an empty word buffer from the pool. After the batch has
// been sent with TrySend, the receiver owns it and returns it with PutBatch.
func (b *Broker) GetBatch() *[]uint16 {
	return b.batchPool.Get().(*[]uint16)
}

// PutBatch empties the buffer, keeping its capacity, and returns it to the
// pool.
func (b *Broker) PutBatch(batch *[]uint16) {
	*batch = (*batch)[:0]
	b.batchPool.Put(batch)
}

// SendBatch copies words into a pooled buffer and sends it to the player. It
// never blocks; if the player queue is full, the batch is dropped and false
// returned.
func (b *Broker) SendBatch(words []uint16) bool {
	if len(words) == 0 {
		return true
	}
	batch := b.GetBatch()
	*batch = append(*batch, words...)
	if !TrySend(b.ToPlayer, any(batch)) {
		b.PutBatch(batch)
		return false
	}
	return true
}

// Discard receives and drops everything sent to the host until stop is
// closed. Hosts that have nothing to show run it in a goroutine of their own.
func (b *Broker) Discard(stop <-chan struct{}) {
	for {
		select {
		case <-b.ToHost:
		case <-stop:
			return
		}
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
