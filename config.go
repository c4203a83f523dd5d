package harmonic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

// Config is the construction-time configuration of the engine. Pitches are in
// semitones relative to StandardPitch; the control protocol maps its
// normalized pitch field linearly onto [LowerLimit, LowerLimit+Range].
type Config struct {
	LowerLimit    float64 `yaml:"lowerLimit" json:"lowerLimit"`
	Range         float64 `yaml:"range" json:"range"`
	StandardPitch float64 `yaml:"standardPitch" json:"standardPitch"` // Hz
	SampleRate    int     `yaml:"sampleRate" json:"sampleRate"`       // Hz
	FadeDuration  float64 `yaml:"fadeDuration" json:"fadeDuration"`   // seconds
	BlockSize     int     `yaml:"blockSize" json:"blockSize"`         // frames per render call
}

const (
	DefaultLowerLimit    = -21
	DefaultRange         = 36
	DefaultStandardPitch = 440
	DefaultSampleRate    = 44100
	DefaultFadeDuration  = 1.0 / 60
	DefaultBlockSize     = 128
)

var ErrInvalidConfig = errors.New("invalid config")

func DefaultConfig() Config {
	return Config{
		LowerLimit:    DefaultLowerLimit,
		Range:         DefaultRange,
		StandardPitch: DefaultStandardPitch,
		SampleRate:    DefaultSampleRate,
		FadeDuration:  DefaultFadeDuration,
		BlockSize:     DefaultBlockSize,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.Range > 0):
		return fmt.Errorf("%w: range must be positive, got %v", ErrInvalidConfig, c.Range)
	case !(c.StandardPitch > 0):
		return fmt.Errorf("%w: standard pitch must be positive, got %v", ErrInvalidConfig, c.StandardPitch)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidConfig, c.SampleRate)
	case !(c.FadeDuration > 0):
		return fmt.Errorf("%w: fade duration must be positive, got %v", ErrInvalidConfig, c.FadeDuration)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size must be positive, got %v", ErrInvalidConfig, c.BlockSize)
	case math.IsNaN(c.LowerLimit) || math.IsInf(c.LowerLimit, 0):
		return fmt.Errorf("%w: lower limit must be finite", ErrInvalidConfig)
	}
	return nil
}

// FadeRate is the fraction of a fade traversed per sample:
// 1 / (FadeDuration * SampleRate).
func (c Config) FadeRate() float64 {
	return 1 / (c.FadeDuration * float64(c.SampleRate))
}

// FadeFrames is the number of samples a fade over the full distance takes.
func (c Config) FadeFrames() int {
	return int(math.Ceil(1 / c.FadeRate()))
}

func (c Config) Nyquist() float64 {
	return float64(c.SampleRate) / 2
}

// Semitone maps a normalized pitch in [0,1] onto the configured range.
func (c Config) Semitone(normalized float64) float64 {
	return c.LowerLimit + normalized*c.Range
}

// Normalize is the inverse of Semitone. The result is not clamped.
func (c Config) Normalize(semitone float64) float64 {
	return (semitone - c.LowerLimit) / c.Range
}

// Frequency returns the frequency in Hz of a pitch given in semitones
// relative to the standard pitch.
func (c Config) Frequency(semitone float64) float64 {
	return c.StandardPitch * math.Exp2(semitone/12)
}

// ReferencePitch is the frequency of the lowest playable pitch. Partials are
// scaled by ReferencePitch/frequency so that low notes are not
// disproportionately quiet.
func (c Config) ReferencePitch() float64 {
	return c.Frequency(c.LowerLimit)
}

// ReadConfig parses a configuration as JSON or, failing that, as YAML. Fields
// missing from the input keep their default values.
func ReadConfig(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config: %w", err)
	}
	config := DefaultConfig()
	if errJSON := json.Unmarshal(b, &config); errJSON != nil {
		config = DefaultConfig()
		if errYaml := yaml.Unmarshal(b, &config); errYaml != nil {
			return Config{}, fmt.Errorf("the config could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
