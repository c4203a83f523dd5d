package player

import (
	"math"

	"github.com/viterin/vek/vek32"
)

type (
	// Level is the peak and RMS level of a block of mono audio.
	Level struct {
		Peak float32
		RMS  float32
	}

	// Meter follows the level of the output. The peak is held and decays
	// exponentially; the RMS is that of the latest block.
	Meter struct {
		level Level
		decay float64 // per sample
	}
)

// peakHalfLife is the time in seconds for a held peak to decay by half.
const peakHalfLife = 0.25

func NewMeter(sampleRate int) *Meter {
	return &Meter{decay: math.Exp2(-1 / (peakHalfLife * float64(sampleRate)))}
}

// Update measures one block. It does not allocate.
func (m *Meter) Update(buffer []float32) {
	if len(buffer) == 0 {
		return
	}
	l := Measure(buffer)
	held := m.level.Peak * float32(math.Pow(m.decay, float64(len(buffer))))
	m.level.Peak = max(l.Peak, held)
	m.level.RMS = l.RMS
}

// Measure returns the level of the whole buffer.
func Measure(buffer []float32) Level {
	if len(buffer) == 0 {
		return Level{}
	}
	return Level{
		Peak: max(vek32.Max(buffer), -vek32.Min(buffer)),
		RMS:  float32(math.Sqrt(float64(vek32.Dot(buffer, buffer)) / float64(len(buffer)))),
	}
}

func (m *Meter) Level() Level { return m.level }

func (m *Meter) Reset() { m.level = Level{} }

// Decibels converts a linear amplitude to dBFS, with silence at -Inf.
func Decibels(amplitude float32) float64 {
	return 20 * math.Log10(float64(amplitude))
}
