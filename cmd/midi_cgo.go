//go:build cgo

package cmd

import (
	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/gomidi"
	"github.com/harmonicpad/harmonic/player"
)

func NewMidiContext(broker *player.Broker, config harmonic.Config) player.MIDIContext {
	return gomidi.NewContext(broker, config)
}
