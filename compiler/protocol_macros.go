package compiler

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
)

type (
	// ProtocolMacros is the data given to the templates.
	ProtocolMacros struct {
		Config harmonic.Config
		Kinds  []KindMacro

		WordsPerMessage int
		MaxID           int
		PitchMax        int
		LoudnessMax     int
		MaxHarmonics    int

		caser cases.Caser
	}

	KindMacro struct {
		Name  string
		Value int
	}
)

// Bit layout of the first word.
const (
	IDShift   = 6
	KindShift = 4
	KindMask  = 0x3
)

func NewProtocolMacros(config harmonic.Config) *ProtocolMacros {
	m := &ProtocolMacros{
		Config:          config,
		WordsPerMessage: protocol.WordsPerMessage,
		MaxID:           protocol.MaxID,
		PitchMax:        protocol.PitchMax,
		LoudnessMax:     protocol.LoudnessMax,
		MaxHarmonics:    harmonic.MaxHarmonics,
		caser:           cases.Title(language.English),
	}
	for _, k := range []protocol.Kind{protocol.Add, protocol.Update, protocol.Remove} {
		m.Kinds = append(m.Kinds, KindMacro{Name: k.String(), Value: int(k)})
	}
	return m
}

func (m *ProtocolMacros) IDShift() int   { return IDShift }
func (m *ProtocolMacros) KindShift() int { return KindShift }
func (m *ProtocolMacros) KindMask() int  { return KindMask }

// Title returns s in title case, e.g. "update" -> "Update".
func (m *ProtocolMacros) Title(s string) string {
	return m.caser.String(s)
}

// Float formats a float so that both C and JavaScript parse it back exactly.
func (m *ProtocolMacros) Float(f float64) string {
	return formatFloat(f)
}

// ReferencePitch is the frequency of the lowest pitch, in Hz.
func (m *ProtocolMacros) ReferencePitch() float64 {
	return m.Config.ReferencePitch()
}
