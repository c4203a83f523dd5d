package synth_test

import (
	"errors"
	"math"
	"testing"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
	"github.com/harmonicpad/harmonic/synth"
)

func newEngine(t testing.TB) *synth.Engine {
	t.Helper()
	e, err := synth.New(harmonic.DefaultConfig())
	if err != nil {
		t.Fatalf("synth.New failed: %v", err)
	}
	return e
}

func encode(t testing.TB, messages ...protocol.Message) []uint16 {
	t.Helper()
	words, err := protocol.EncodeBatch(nil, messages...)
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}
	return words
}

func apply(t testing.TB, e *synth.Engine, messages ...protocol.Message) {
	t.Helper()
	if err := e.Apply(encode(t, messages...)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

func add(id int, pitch, loudness float64) protocol.Message {
	return protocol.Message{ID: id, Kind: protocol.Add, Pitch: pitch, Loudness: loudness}
}

func update(id int, pitch, loudness float64) protocol.Message {
	return protocol.Message{ID: id, Kind: protocol.Update, Pitch: pitch, Loudness: loudness}
}

func remove(id int) protocol.Message {
	return protocol.Message{ID: id, Kind: protocol.Remove}
}

// quantized returns the values the engine sees after a message has been sent
// through the codec.
func quantized(t testing.TB, cfg harmonic.Config, m protocol.Message) (semitone, loudness float64) {
	t.Helper()
	w, err := protocol.Encode(m)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	d := protocol.Decode(w[0], w[1], w[2])
	return cfg.Semitone(d.Pitch), d.Loudness
}

func TestConvergence(t *testing.T) {
	e := newEngine(t)
	cfg := e.Config()
	m := add(7, 0.3, 0.8)
	apply(t, e, m)
	e.Render(make(harmonic.AudioBuffer, cfg.FadeFrames()))
	// not reclaimed, the voice was never stopped
	v, ok := e.Voice(7)
	if !ok {
		t.Fatal("voice 7 is not active")
	}
	semitone, loudness := quantized(t, cfg, m)
	if v.Semitone != semitone {
		t.Errorf("semitone = %v, want exactly %v", v.Semitone, semitone)
	}
	if v.Loudness != loudness {
		t.Errorf("loudness = %v, want exactly %v", v.Loudness, loudness)
	}
	if v.LoudnessVelocity == 0 {
		t.Error("loudness velocity should be kept after convergence")
	}
}

func TestAddFadesInFromSilence(t *testing.T) {
	e := newEngine(t)
	apply(t, e, add(1, 0.5, 1))
	v, _ := e.Voice(1)
	if v.Loudness != 0 {
		t.Errorf("a new voice should start silent, loudness = %v", v.Loudness)
	}
	if v.Semitone != v.TargetSemitone || v.SemitoneVelocity != 0 {
		t.Errorf("a new voice should start at its pitch, got %v -> %v", v.Semitone, v.TargetSemitone)
	}
	want := e.Config().FadeRate()
	if math.Abs(v.LoudnessVelocity-want) > 1e-15 {
		t.Errorf("loudness velocity = %v, want %v", v.LoudnessVelocity, want)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	e := newEngine(t)
	apply(t, e, add(1, 0.5, 1), add(2, 0.6, 1))
	e.Render(make(harmonic.AudioBuffer, 64))
	apply(t, e, remove(1))
	first, _ := e.Voice(1)
	apply(t, e, remove(1))
	second, _ := e.Voice(1)
	if first != second {
		t.Errorf("second remove changed the voice: %+v != %+v", first, second)
	}
	if got := e.ActiveIDs(nil); len(got) != 2 {
		t.Errorf("active ids = %v, want two entries", got)
	}
	if !second.Stopped || second.TargetLoudness != 0 {
		t.Errorf("removed voice should be stopped and fading to 0, got %+v", second)
	}
}

func TestUnknownIDsAreIgnored(t *testing.T) {
	e := newEngine(t)
	apply(t, e, update(5, 0.5, 0.5), remove(6))
	if n := e.NumVoices(); n != 0 {
		t.Errorf("NumVoices = %d, want 0", n)
	}
}

func TestReclamationHappensAtBlockEnd(t *testing.T) {
	e := newEngine(t)
	fade := e.Config().FadeFrames()
	apply(t, e, add(3, 0.5, 1))
	e.Render(make(harmonic.AudioBuffer, fade+1))
	apply(t, e, remove(3))
	e.Render(make(harmonic.AudioBuffer, fade/2))
	v, ok := e.Voice(3)
	if !ok {
		t.Fatal("voice was reclaimed before it faded out")
	}
	if v.Loudness <= 0 {
		t.Errorf("loudness = %v halfway through the fade", v.Loudness)
	}
	// the voice reaches silence in the middle of this block
	buffer := make(harmonic.AudioBuffer, fade)
	e.Render(buffer)
	if _, ok := e.Voice(3); ok {
		t.Error("silent stopped voice was not reclaimed at the end of the block")
	}
	if n := e.NumVoices(); n != 0 {
		t.Errorf("NumVoices = %d, want 0", n)
	}
	for i := fade - fade/2; i < len(buffer); i++ {
		if buffer[i] != 0 {
			t.Fatalf("sample %d = %v after the voice faded out", i, buffer[i])
		}
	}
}

func TestUpdateOfStoppedVoiceOnlyMovesPitch(t *testing.T) {
	e := newEngine(t)
	apply(t, e, add(3, 0.5, 1))
	e.Render(make(harmonic.AudioBuffer, 100))
	apply(t, e, remove(3), update(3, 0.9, 1))
	v, _ := e.Voice(3)
	if !v.Stopped || v.TargetLoudness != 0 {
		t.Errorf("update revived a stopped voice: %+v", v)
	}
	if want, _ := quantized(t, e.Config(), update(3, 0.9, 1)); v.TargetSemitone != want {
		t.Errorf("target semitone = %v, want %v", v.TargetSemitone, want)
	}
}

func TestReAddRestartsInPlace(t *testing.T) {
	e := newEngine(t)
	cfg := e.Config()
	apply(t, e, add(1, 0.1, 1), add(2, 0.2, 1), add(3, 0.3, 1))
	e.Render(make(harmonic.AudioBuffer, cfg.FadeFrames()+1))
	before, _ := e.Voice(2)
	apply(t, e, remove(2), add(2, 0.9, 0.5))
	after, ok := e.Voice(2)
	if !ok {
		t.Fatal("voice 2 is gone")
	}
	semitone, loudness := quantized(t, cfg, add(2, 0.9, 0.5))
	if after.Stopped || after.Loudness != 0 || after.Semitone != semitone || after.TargetLoudness != loudness {
		t.Errorf("re-added voice was not reinitialized: %+v", after)
	}
	if after.PhaseSlot != before.PhaseSlot {
		t.Errorf("phase slot moved from %d to %d", before.PhaseSlot, after.PhaseSlot)
	}
	ids := e.ActiveIDs(nil)
	if len(ids) != 3 || ids[1] != 2 {
		t.Errorf("active ids = %v, want [1 2 3]", ids)
	}
}

func TestSameIDEventsApplyInOrder(t *testing.T) {
	e := newEngine(t)
	cfg := e.Config()
	last := update(4, 0.7, 0.25)
	apply(t, e, add(4, 0.1, 1), update(4, 0.4, 0.5), last)
	v, _ := e.Voice(4)
	semitone, loudness := quantized(t, cfg, last)
	if v.TargetSemitone != semitone || v.TargetLoudness != loudness {
		t.Errorf("targets = %v/%v, want %v/%v", v.TargetSemitone, v.TargetLoudness, semitone, loudness)
	}
	apply(t, e, remove(4), add(4, 0.2, 1), remove(4))
	v, _ = e.Voice(4)
	if !v.Stopped {
		t.Error("the last remove of the batch was not applied")
	}
}

func TestMalformedBatchIsRejected(t *testing.T) {
	e := newEngine(t)
	words := append(encode(t, add(1, 0.5, 1)), 0)
	err := e.Apply(words)
	if !errors.Is(err, protocol.ErrProtocolViolation) {
		t.Fatalf("Apply error = %v, want a protocol violation", err)
	}
	if n := e.NumVoices(); n != 0 {
		t.Errorf("a rejected batch added %d voices", n)
	}
	// subsequent batches are processed normally
	apply(t, e, add(1, 0.5, 1))
	if n := e.NumVoices(); n != 1 {
		t.Errorf("NumVoices = %d, want 1", n)
	}
}

func TestReservedKindIsIgnored(t *testing.T) {
	e := newEngine(t)
	w := encode(t, add(9, 0.5, 1))
	w[0] |= 3 << 4
	if err := e.Apply(w); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n := e.NumVoices(); n != 0 {
		t.Errorf("NumVoices = %d, want 0", n)
	}
}

func TestNyquistBound(t *testing.T) {
	e := newEngine(t)
	for _, c := range []struct {
		f0   float64
		want int
	}{
		{10000, 2},
		{22050, 1},
		{22051, 0},
		{100, harmonic.MaxHarmonics},
		{2756.25, harmonic.MaxHarmonics},
		{2757, 7},
		{0, 0},
	} {
		if got := e.Harmonics(c.f0); got != c.want {
			t.Errorf("Harmonics(%v) = %d, want %d", c.f0, got, c.want)
		}
	}
}

func TestPitchRange(t *testing.T) {
	e := newEngine(t)
	cfg := e.Config()
	apply(t, e, add(0, 0, 1), add(1, 1, 1))
	for id, want := range []float64{130.81, 1046.5} {
		v, _ := e.Voice(id)
		if got := cfg.Frequency(v.Semitone); math.Abs(got-want) > 0.01 {
			t.Errorf("voice %d frequency = %v, want %v", id, got, want)
		}
	}
}

func TestRenderMatchesAdditiveSynthesis(t *testing.T) {
	e := newEngine(t)
	cfg := e.Config()
	m := add(0, 0.25, 1)
	apply(t, e, m)
	buffer := make(harmonic.AudioBuffer, 3000)
	e.Render(buffer)
	semitone, loudness := quantized(t, cfg, m)
	f0 := cfg.Frequency(semitone)
	n := e.Harmonics(f0)
	ref := cfg.ReferencePitch()
	rate := cfg.FadeRate()
	for j, got := range buffer {
		l := math.Min(float64(j+1)*rate*loudness, loudness)
		var sum float64
		for k := 1; k <= n; k++ {
			fk := f0 * float64(k)
			phase := math.Mod(float64(j)*fk/float64(cfg.SampleRate), 1)
			sum += 1 / float64(k*k) * (ref / fk) * math.Sin(2*math.Pi*phase)
		}
		want := sum * synth.Gain(l)
		if math.Abs(float64(got)-want) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", j, got, want)
		}
	}
}

func TestSilenceWithoutVoices(t *testing.T) {
	e := newEngine(t)
	buffer := harmonic.AudioBuffer{1, 2, 3, 4}
	e.Render(buffer)
	for i, s := range buffer {
		if s != 0 {
			t.Errorf("sample %d = %v, want 0", i, s)
		}
	}
}

func TestPoolReusesVoices(t *testing.T) {
	e := newEngine(t)
	fade := e.Config().FadeFrames()
	buffer := make(harmonic.AudioBuffer, 2*fade+1)
	for round := 0; round < 5; round++ {
		var adds, removes []protocol.Message
		for id := 0; id < 20; id++ {
			adds = append(adds, add(id+round, 0.5, 1))
			removes = append(removes, remove(id+round))
		}
		apply(t, e, adds...)
		e.Render(buffer)
		apply(t, e, removes...)
		e.Render(buffer)
		if n := e.NumVoices(); n != 0 {
			t.Fatalf("round %d: NumVoices = %d, want 0", round, n)
		}
	}
	if n := e.NumAllocated(); n != 20 {
		t.Errorf("NumAllocated = %d, want 20", n)
	}
}

func TestSteadyStateDoesNotAllocate(t *testing.T) {
	e := newEngine(t)
	fade := e.Config().FadeFrames()
	var adds, updates, removes []protocol.Message
	for id := 0; id < 32; id++ {
		p := float64(id) / 32
		adds = append(adds, add(id*31, p, 0.5))
		updates = append(updates, update(id*31, 1-p, 0.75))
		removes = append(removes, remove(id*31))
	}
	addBatch, updateBatch, removeBatch := encode(t, adds...), encode(t, updates...), encode(t, removes...)
	buffer := make(harmonic.AudioBuffer, harmonic.DefaultBlockSize)
	cycle := func() {
		if err := e.Apply(addBatch); err != nil {
			t.Fatal(err)
		}
		e.Render(buffer)
		if err := e.Apply(updateBatch); err != nil {
			t.Fatal(err)
		}
		e.Render(buffer)
		if err := e.Apply(removeBatch); err != nil {
			t.Fatal(err)
		}
		for i := 0; i <= fade/len(buffer)+1; i++ {
			e.Render(buffer)
		}
	}
	cycle()
	if n := e.NumVoices(); n != 0 {
		t.Fatalf("NumVoices = %d after a full cycle, want 0", n)
	}
	allocs := testing.AllocsPerRun(20, cycle)
	if allocs != 0 {
		t.Fatalf("Apply/Render allocs/op = %.2f, want 0", allocs)
	}
}

func BenchmarkRender(b *testing.B) {
	e := newEngine(b)
	var adds []protocol.Message
	for id := 0; id < 16; id++ {
		adds = append(adds, add(id, float64(id)/16, 1))
	}
	apply(b, e, adds...)
	buffer := make(harmonic.AudioBuffer, harmonic.DefaultBlockSize)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Render(buffer)
	}
}

func TestSyntherRejectsInvalidConfig(t *testing.T) {
	cfg := harmonic.DefaultConfig()
	cfg.SampleRate = 0
	s, err := synth.Synther{}.Synth(cfg)
	if !errors.Is(err, harmonic.ErrInvalidConfig) {
		t.Errorf("Synth error = %v, want ErrInvalidConfig", err)
	}
	if s != nil {
		t.Errorf("Synth returned %#v alongside the error, want a nil interface", s)
	}
}
