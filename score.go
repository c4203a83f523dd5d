package harmonic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/harmonicpad/harmonic/protocol"
	"gopkg.in/yaml.v3"
)

type (
	// Score is a timed list of control events, e.g. a recorded performance.
	// Frames count samples from the start of the score. Length is the total
	// length in samples; zero means the last event plus a tail long enough
	// for every voice to fade out.
	Score struct {
		SampleRate int          `yaml:"sampleRate,omitempty" json:"sampleRate,omitempty"`
		Length     int          `yaml:"length,omitempty" json:"length,omitempty"`
		Events     []ScoreEvent `yaml:"events" json:"events"`
	}

	// ScoreEvent is a control message stamped with the frame it happens on.
	ScoreEvent struct {
		Frame    int           `yaml:"frame" json:"frame"`
		ID       int           `yaml:"id" json:"id"`
		Kind     protocol.Kind `yaml:"kind" json:"kind"`
		Pitch    float64       `yaml:"pitch,omitempty" json:"pitch,omitempty"`
		Loudness float64       `yaml:"loudness,omitempty" json:"loudness,omitempty"`
	}

	// Batch is the encoded form of all the events sharing one frame.
	Batch struct {
		Frame int
		Words []uint16
	}
)

var ErrUnorderedEvents = errors.New("score events must be ordered by frame")

func (e ScoreEvent) Message() protocol.Message {
	return protocol.Message{ID: e.ID, Kind: e.Kind, Pitch: e.Pitch, Loudness: e.Loudness}
}

func (s Score) Validate() error {
	last := 0
	for i, e := range s.Events {
		if e.Frame < 0 {
			return fmt.Errorf("event %d: negative frame %d", i, e.Frame)
		}
		if e.Frame < last {
			return fmt.Errorf("event %d: %w", i, ErrUnorderedEvents)
		}
		if _, err := protocol.Encode(e.Message()); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		last = e.Frame
	}
	if s.Length < 0 {
		return fmt.Errorf("negative score length %d", s.Length)
	}
	if s.Length > 0 && len(s.Events) > 0 && s.Length <= last {
		return fmt.Errorf("score length %d ends before the last event at frame %d", s.Length, last)
	}
	return nil
}

// LengthFor returns the length of the score in samples, computing the tail
// from config when Length is not set.
func (s Score) LengthFor(config Config) int {
	if s.Length > 0 {
		return s.Length
	}
	last := 0
	if n := len(s.Events); n > 0 {
		last = s.Events[n-1].Frame
	}
	return last + 2*config.FadeFrames() + config.BlockSize
}

// Batches encodes the events, one batch per distinct frame, in frame order.
func (s Score) Batches() ([]Batch, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var ret []Batch
	for _, e := range s.Events {
		if len(ret) == 0 || ret[len(ret)-1].Frame != e.Frame {
			ret = append(ret, Batch{Frame: e.Frame})
		}
		b := &ret[len(ret)-1]
		var err error
		if b.Words, err = protocol.Append(b.Words, e.Message()); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Sort orders the events by frame, keeping the order of events on the same
// frame.
func (s *Score) Sort() {
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Frame < s.Events[j].Frame })
}

// Play renders the score with synth. A batch is applied before the block that
// contains its frame, so events are quantized to block boundaries, the same
// way a real-time host applies them once per callback.
func Play(synth Synth, score Score, config Config) (AudioBuffer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	batches, err := score.Batches()
	if err != nil {
		return nil, fmt.Errorf("invalid score: %w", err)
	}
	buffer := make(AudioBuffer, score.LengthFor(config))
	next := 0
	for pos := 0; pos < len(buffer); pos += config.BlockSize {
		end := min(pos+config.BlockSize, len(buffer))
		for next < len(batches) && batches[next].Frame < end {
			if err := synth.Apply(batches[next].Words); err != nil {
				return nil, fmt.Errorf("applying events of frame %d: %w", batches[next].Frame, err)
			}
			next++
		}
		synth.Render(buffer[pos:end])
	}
	return buffer, nil
}

// ReadScore parses a score as JSON or, failing that, as YAML.
func ReadScore(r io.Reader) (Score, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Score{}, fmt.Errorf("could not read score: %w", err)
	}
	var score Score
	if errJSON := json.Unmarshal(b, &score); errJSON != nil {
		score = Score{}
		if errYaml := yaml.Unmarshal(b, &score); errYaml != nil {
			return Score{}, fmt.Errorf("the score could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := score.Validate(); err != nil {
		return Score{}, err
	}
	return score, nil
}

func (s Score) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("could not encode score: %w", err)
	}
	return enc.Close()
}
