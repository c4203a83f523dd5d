package player

import (
	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
)

// Recorder captures the applied control messages with their frames. It starts
// counting frames at the first recorded message, so a recording never starts
// with silence. Recording allocates and is not real-time safe.
type Recorder struct {
	sampleRate int
	started    bool
	start      int // absolute frame of the first message
	frames     int // absolute frame of the end of the recording
	events     []harmonic.ScoreEvent
}

func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// Record stores the messages of a well-formed batch, applied at the given
// absolute frame.
func (r *Recorder) Record(frame int, batch []uint16) {
	messages, err := protocol.DecodeBatch(batch)
	if err != nil || len(messages) == 0 {
		return
	}
	if !r.started {
		r.started = true
		r.start = frame
	}
	for _, m := range messages {
		if !m.Kind.Valid() {
			continue
		}
		r.events = append(r.events, harmonic.ScoreEvent{
			Frame:    frame - r.start,
			ID:       m.ID,
			Kind:     m.Kind,
			Pitch:    m.Pitch,
			Loudness: m.Loudness,
		})
	}
}

// Advance marks that rendering has reached the given absolute frame.
func (r *Recorder) Advance(frame int) {
	r.frames = frame
}

// Score returns the recording. The length covers everything rendered after
// the first message; zero if nothing was recorded.
func (r *Recorder) Score() harmonic.Score {
	score := harmonic.Score{SampleRate: r.sampleRate, Events: r.events}
	if r.started && r.frames > r.start {
		score.Length = r.frames - r.start
	}
	return score
}
