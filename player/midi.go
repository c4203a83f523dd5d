package player

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// MIDIContext lists the MIDI input devices of a driver. An opened device
	// sends its events, translated into control batches, to the player.
	MIDIContext interface {
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

var ErrNoMIDIInput = errors.New("no MIDI input found")

func (s MIDISupport) String() string {
	switch s {
	case MIDISupportNotCompiled:
		return "Not compiled"
	case MIDISupportNoDriver:
		return "No driver"
	default:
		return "Supported"
	}
}

// OpenMIDIInput opens the first input whose name starts with namePrefix. An
// empty prefix matches the first input.
func OpenMIDIInput(context MIDIContext, namePrefix string) (MIDIInputDevice, error) {
	if s := context.Support(); s != MIDISupported {
		return nil, fmt.Errorf("%w: MIDI support: %v", ErrNoMIDIInput, s)
	}
	for input := range context.Inputs {
		if !strings.HasPrefix(input.String(), namePrefix) {
			continue
		}
		if err := input.Open(); err != nil {
			return nil, fmt.Errorf("opening MIDI input %q failed: %w", input.String(), err)
		}
		return input, nil
	}
	if namePrefix == "" {
		return nil, ErrNoMIDIInput
	}
	return nil, fmt.Errorf("%w starting with %q", ErrNoMIDIInput, namePrefix)
}

// NullMIDIContext is a mockup MIDIContext if you don't want to create a real
// one.
type NullMIDIContext struct{}

func (m NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (m NullMIDIContext) Close()                                        {}
func (m NullMIDIContext) Support() MIDISupport                          { return MIDISupportNotCompiled }
