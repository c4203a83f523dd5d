// Package gomidi turns MIDI input into control batches, using
// gitlab.com/gomidi/midi/v2.
package gomidi

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
)

type (
	// Translator converts MIDI messages into control messages. Each sounding
	// note gets its own voice id from an IDPool. The messages are collected
	// into a batch until Flush. A Translator is not safe for concurrent use.
	Translator struct {
		config    harmonic.Config
		bendRange float64
		ids       *protocol.IDPool
		batcher   protocol.Batcher
		channels  [numChannels]channel
	}

	channel struct {
		bend  float64 // semitones
		notes [numKeys]note
	}

	note struct {
		id       int16 // -1 when not sounding
		loudness float64
	}
)

const (
	numChannels = 16
	numKeys     = 128

	// a4 is the MIDI key of the standard pitch
	a4 = 69

	DefaultBendRange = 2 // semitones

	allNotesOff = 123
)

func NewTranslator(config harmonic.Config) *Translator {
	t := &Translator{
		config:    config,
		bendRange: DefaultBendRange,
		ids:       protocol.NewIDPool(),
	}
	for c := range t.channels {
		for k := range t.channels[c].notes {
			t.channels[c].notes[k].id = -1
		}
	}
	return t
}

// SetBendRange sets the pitch bend range in semitones.
func (t *Translator) SetBendRange(semitones float64) { t.bendRange = semitones }

// Translate handles one MIDI message and reports whether it was used.
func (t *Translator) Translate(msg midi.Message) bool {
	var ch, key, vel, cc uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		t.NoteOn(ch, key, vel)
	case msg.GetNoteEnd(&ch, &key):
		t.NoteOff(ch, key)
	case msg.GetPitchBend(&ch, &rel, &abs):
		t.PitchBend(ch, rel)
	case msg.GetPolyAfterTouch(&ch, &key, &vel):
		t.AfterTouch(ch, key, vel)
	case msg.GetControlChange(&ch, &cc, &vel) && cc == allNotesOff:
		t.ChannelOff(ch)
	default:
		return false
	}
	return true
}

// NoteOn starts a voice. A key that is already sounding on the channel is
// restarted with a new voice.
func (t *Translator) NoteOn(ch, key, velocity uint8) {
	if ch >= numChannels || key >= numKeys {
		return
	}
	t.NoteOff(ch, key)
	id, ok := t.ids.Acquire()
	if !ok {
		return // out of voices; drop the note
	}
	c := &t.channels[ch]
	n := &c.notes[key]
	n.id = int16(id)
	n.loudness = float64(velocity) / 127
	t.batcher.Add(id, t.pitch(c, key), n.loudness)
}

func (t *Translator) NoteOff(ch, key uint8) {
	if ch >= numChannels || key >= numKeys {
		return
	}
	n := &t.channels[ch].notes[key]
	if n.id < 0 {
		return
	}
	t.batcher.Remove(int(n.id))
	t.ids.Release(int(n.id))
	n.id = -1
}

// PitchBend bends every voice of the channel. rel is in the range
// [-8192, 8191].
func (t *Translator) PitchBend(ch uint8, rel int16) {
	if ch >= numChannels {
		return
	}
	c := &t.channels[ch]
	c.bend = float64(rel) / 8192 * t.bendRange
	for k := range c.notes {
		if n := &c.notes[k]; n.id >= 0 {
			t.batcher.Update(int(n.id), t.pitch(c, uint8(k)), n.loudness)
		}
	}
}

// AfterTouch sets the loudness of a sounding key.
func (t *Translator) AfterTouch(ch, key, pressure uint8) {
	if ch >= numChannels || key >= numKeys {
		return
	}
	c := &t.channels[ch]
	n := &c.notes[key]
	if n.id < 0 {
		return
	}
	n.loudness = float64(pressure) / 127
	t.batcher.Update(int(n.id), t.pitch(c, key), n.loudness)
}

// ChannelOff releases every voice of the channel.
func (t *Translator) ChannelOff(ch uint8) {
	for k := 0; k < numKeys; k++ {
		t.NoteOff(ch, uint8(k))
	}
}

// AllOff releases every voice.
func (t *Translator) AllOff() {
	for c := 0; c < numChannels; c++ {
		t.ChannelOff(uint8(c))
	}
}

// Pending returns the number of messages waiting to be flushed.
func (t *Translator) Pending() int { return t.batcher.Len() }

// Flush appends the collected batch to dst.
func (t *Translator) Flush(dst []uint16) []uint16 {
	return t.batcher.Flush(dst)
}

// Voices returns the number of sounding notes.
func (t *Translator) Voices() int { return t.ids.InUse() }

// pitch returns the normalized pitch of a key, clamped to the configured
// range.
func (t *Translator) pitch(c *channel, key uint8) float64 {
	p := t.config.Normalize(float64(key) - a4 + c.bend)
	return max(0, min(1, p))
}
