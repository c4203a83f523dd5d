package synth

type (
	// voice is one pooled sounding unit. Records are reused through the free
	// pool; a record keeps its phase slot for the lifetime of the engine.
	voice struct {
		semitone  ramp
		loudness  ramp
		freq      float64 // derived from semitone
		gain      float64 // derived from loudness
		phaseSlot int     // offset of the voice's partials in the phase storage
		stopped   bool
		stale     bool // freq and gain have not been derived yet
	}

	// VoiceState is a snapshot of an active voice.
	VoiceState struct {
		ID               int
		Semitone         float64
		TargetSemitone   float64
		SemitoneVelocity float64
		Loudness         float64
		TargetLoudness   float64
		LoudnessVelocity float64
		PhaseSlot        int
		Stopped          bool
	}
)

// start initializes the voice as if it had just been added: the pitch jumps
// to its target while the loudness fades in from silence.
func (v *voice) start(semitone, loudness, rate float64) {
	v.semitone.jump(semitone)
	v.loudness.jump(0)
	v.loudness.retarget(loudness, rate)
	v.stopped = false
	v.stale = true
}

// setTargets retargets pitch and loudness. A stopped voice keeps fading out;
// only its pitch follows.
func (v *voice) setTargets(semitone, loudness, rate float64) {
	v.semitone.retarget(semitone, rate)
	if !v.stopped {
		v.loudness.retarget(loudness, rate)
	}
}

// stop starts fading the voice out. It cannot be undone, except by adding the
// id again.
func (v *voice) stop(rate float64) {
	v.loudness.retarget(0, rate)
	v.stopped = true
}

// finished reports whether the voice can be reclaimed.
func (v *voice) finished() bool {
	return v.stopped && v.loudness.value == 0
}

func (v *voice) state(id int) VoiceState {
	return VoiceState{
		ID:               id,
		Semitone:         v.semitone.value,
		TargetSemitone:   v.semitone.target,
		SemitoneVelocity: v.semitone.velocity,
		Loudness:         v.loudness.value,
		TargetLoudness:   v.loudness.target,
		LoudnessVelocity: v.loudness.velocity,
		PhaseSlot:        v.phaseSlot,
		Stopped:          v.stopped,
	}
}
