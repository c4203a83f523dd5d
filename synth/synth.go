// Package synth implements the real-time engine: a pool of voices driven by
// control messages, each voice an additive oscillator bank with a handful of
// band-limited partials, mixed into a mono output.
//
// An Engine is single threaded. Apply and Render must be called from the same
// goroutine, typically the audio callback. Once the pool has grown to the
// peak polyphony, neither allocates.
package synth

import (
	"fmt"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
)

type (
	// Engine is the additive synthesizer. It implements harmonic.Synth.
	Engine struct {
		config         harmonic.Config
		fadeRate       float64
		nyquist        float64
		sampleTime     float64
		referencePitch float64
		voices         *registry
	}

	// Synther constructs Engines.
	Synther struct{}
)

func (s Synther) Name() string { return "Go" }

func (s Synther) Synth(config harmonic.Config) (harmonic.Synth, error) {
	e, err := New(config)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func New(config harmonic.Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("could not create engine: %w", err)
	}
	return &Engine{
		config:         config,
		fadeRate:       config.FadeRate(),
		nyquist:        config.Nyquist(),
		sampleTime:     1 / float64(config.SampleRate),
		referencePitch: config.ReferencePitch(),
		voices:         newRegistry(),
	}, nil
}

func (e *Engine) Config() harmonic.Config { return e.config }

// Apply applies a batch of packed control words in order. A batch whose
// length is not a multiple of three is rejected as a whole with a
// protocol.ErrProtocolViolation. Updates and removes of unknown ids are
// ignored.
func (e *Engine) Apply(batch []uint16) error {
	if err := protocol.Validate(batch); err != nil {
		return err
	}
	for i := 0; i < len(batch); i += protocol.WordsPerMessage {
		e.apply(protocol.Decode(batch[i], batch[i+1], batch[i+2]))
	}
	return nil
}

func (e *Engine) apply(m protocol.Message) {
	switch m.Kind {
	case protocol.Add:
		// an id that is already active is restarted in place
		e.voices.add(m.ID, e.config.Semitone(m.Pitch), m.Loudness, e.fadeRate)
	case protocol.Update:
		if v := e.voices.lookup(m.ID); v != nil {
			v.setTargets(e.config.Semitone(m.Pitch), m.Loudness, e.fadeRate)
		}
	case protocol.Remove:
		if v := e.voices.lookup(m.ID); v != nil {
			v.stop(e.fadeRate)
		}
	}
}

// Render overwrites buffer with the mix of all active voices and then
// reclaims the voices that have faded out. The whole buffer is one block:
// the set of active voices does not change while it is rendered.
func (e *Engine) Render(buffer harmonic.AudioBuffer) {
	clear(buffer)
	active := e.voices.active
	for i := range active {
		v := active[i].voice
		phase := e.voices.slot(v)
		for j := range buffer {
			if v.semitone.step() || v.stale {
				v.freq = e.config.Frequency(v.semitone.value)
			}
			if v.loudness.step() || v.stale {
				v.gain = Gain(v.loudness.value)
			}
			v.stale = false
			if v.gain == 0 {
				continue
			}
			buffer[j] += float32(e.oscillate(v.freq, phase) * v.gain)
		}
	}
	e.voices.reclaim()
}

// NumVoices returns the number of voices in the active list, including
// voices that have faded out but have not been reclaimed yet.
func (e *Engine) NumVoices() int { return len(e.voices.active) }

// NumAllocated returns the number of voice records ever allocated, i.e. the
// peak polyphony so far, but never less than the preallocated pool.
func (e *Engine) NumAllocated() int { return e.voices.total }

// Voice returns the state of the active voice with the given id.
func (e *Engine) Voice(id int) (VoiceState, bool) {
	v := e.voices.lookup(id)
	if v == nil {
		return VoiceState{}, false
	}
	return v.state(id), true
}

// ActiveIDs appends the ids of the active voices to dst, in list order.
func (e *Engine) ActiveIDs(dst []int) []int {
	for _, a := range e.voices.active {
		dst = append(dst, a.id)
	}
	return dst
}

// Harmonics returns how many partials a voice with fundamental f0 renders.
func (e *Engine) Harmonics(f0 float64) int {
	return numHarmonics(e.nyquist, f0)
}
