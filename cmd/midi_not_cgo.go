//go:build !cgo

package cmd

import (
	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/player"
)

func NewMidiContext(broker *player.Broker, config harmonic.Config) player.MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return player.NullMIDIContext{}
}
