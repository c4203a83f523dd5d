package cmd

import (
	"fmt"
	"os"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/synth"
)

var Synthers = []harmonic.Synther{synth.Synther{}}

var MainSynther = Synthers[0]

// LoadConfig reads the config file at path, or returns the default config if
// path is empty.
func LoadConfig(path string) (harmonic.Config, error) {
	if path == "" {
		return harmonic.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return harmonic.Config{}, fmt.Errorf("could not open config: %w", err)
	}
	defer f.Close()
	config, err := harmonic.ReadConfig(f)
	if err != nil {
		return harmonic.Config{}, fmt.Errorf("config %v: %w", path, err)
	}
	return config, nil
}
