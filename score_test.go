package harmonic_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
	"github.com/harmonicpad/harmonic/synth"
)

const testScore = `
sampleRate: 44100
events:
  - {frame: 0, id: 1, kind: add, pitch: 0.5, loudness: 1}
  - {frame: 0, id: 2, kind: add, pitch: 0.25, loudness: 0.5}
  - {frame: 1000, id: 1, kind: update, pitch: 0.6, loudness: 0.8}
  - {frame: 4000, id: 1, kind: remove}
  - {frame: 4000, id: 2, kind: remove}
`

func TestReadScore(t *testing.T) {
	score, err := harmonic.ReadScore(strings.NewReader(testScore))
	if err != nil {
		t.Fatalf("ReadScore failed: %v", err)
	}
	if len(score.Events) != 5 {
		t.Fatalf("got %d events, want 5", len(score.Events))
	}
	if e := score.Events[2]; e.Kind != protocol.Update || e.Frame != 1000 || e.Pitch != 0.6 {
		t.Errorf("event 2 = %+v", e)
	}
	var buf bytes.Buffer
	if err := score.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	again, err := harmonic.ReadScore(&buf)
	if err != nil {
		t.Fatalf("could not read back the written score: %v", err)
	}
	if len(again.Events) != len(score.Events) || again.Events[3] != score.Events[3] {
		t.Errorf("written score differs: %+v", again)
	}
}

func TestScoreValidate(t *testing.T) {
	score := harmonic.Score{Events: []harmonic.ScoreEvent{{Frame: 10, ID: 1}, {Frame: 5, ID: 1, Kind: protocol.Remove}}}
	if err := score.Validate(); !errors.Is(err, harmonic.ErrUnorderedEvents) {
		t.Errorf("Validate = %v, want ErrUnorderedEvents", err)
	}
	score.Sort()
	if err := score.Validate(); err != nil {
		t.Errorf("sorted score is invalid: %v", err)
	}
	score.Events = append(score.Events, harmonic.ScoreEvent{Frame: 20, ID: protocol.NumIDs})
	if err := score.Validate(); err == nil {
		t.Error("Validate accepted an id out of range")
	}
}

func TestBatches(t *testing.T) {
	score, err := harmonic.ReadScore(strings.NewReader(testScore))
	if err != nil {
		t.Fatalf("ReadScore failed: %v", err)
	}
	batches, err := score.Batches()
	if err != nil {
		t.Fatalf("Batches failed: %v", err)
	}
	wantFrames := []int{0, 1000, 4000}
	wantLens := []int{6, 3, 6}
	if len(batches) != len(wantFrames) {
		t.Fatalf("got %d batches, want %d", len(batches), len(wantFrames))
	}
	for i, b := range batches {
		if b.Frame != wantFrames[i] || len(b.Words) != wantLens[i] {
			t.Errorf("batch %d: frame %d with %d words, want frame %d with %d words", i, b.Frame, len(b.Words), wantFrames[i], wantLens[i])
		}
	}
}

func TestPlay(t *testing.T) {
	cfg := harmonic.DefaultConfig()
	score, err := harmonic.ReadScore(strings.NewReader(testScore))
	if err != nil {
		t.Fatalf("ReadScore failed: %v", err)
	}
	s, err := synth.New(cfg)
	if err != nil {
		t.Fatalf("synth.New failed: %v", err)
	}
	buffer, err := harmonic.Play(s, score, cfg)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if want := 4000 + 2*cfg.FadeFrames() + cfg.BlockSize; len(buffer) != want {
		t.Errorf("rendered %d samples, want %d", len(buffer), want)
	}
	var peak float32
	for _, v := range buffer[:4000] {
		peak = max(peak, v, -v)
	}
	if peak == 0 {
		t.Error("the score rendered silence")
	}
	for i, v := range buffer[len(buffer)-cfg.BlockSize:] {
		if v != 0 {
			t.Fatalf("sample %d of the tail = %v, want silence", i, v)
		}
	}
	if n := s.NumVoices(); n != 0 {
		t.Errorf("NumVoices = %d after the score, want 0", n)
	}
}

func TestFill(t *testing.T) {
	s, err := synth.New(harmonic.DefaultConfig())
	if err != nil {
		t.Fatalf("synth.New failed: %v", err)
	}
	if err := harmonic.Fill(s, make(harmonic.AudioBuffer, 10), 0); err == nil {
		t.Error("Fill accepted a zero block size")
	}
	buffer := harmonic.AudioBuffer{1, 1, 1}
	if err := harmonic.Fill(s, buffer, 2); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	for i, v := range buffer {
		if v != 0 {
			t.Errorf("sample %d = %v, want 0", i, v)
		}
	}
}
