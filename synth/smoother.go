package synth

import "math"

// ramp moves value towards target by a fixed velocity per sample. The
// velocity is fixed when the target is set, from the value at that moment, so
// a ramp never overshoots but retargeting mid-fade changes its duration.
type ramp struct {
	value    float64
	target   float64
	velocity float64
}

// snapTolerance is the fraction of one step within which a ramp counts as
// having reached its target. It absorbs the rounding accumulated over a fade.
const snapTolerance = 1e-6

func (r *ramp) retarget(target, rate float64) {
	r.target = target
	r.velocity = (target - r.value) * rate
}

// jump sets value and target at once, stopping the ramp.
func (r *ramp) jump(value float64) {
	r.value, r.target, r.velocity = value, value, 0
}

// step advances the ramp by one sample and reports whether the value changed.
func (r *ramp) step() bool {
	if r.value == r.target {
		return false
	}
	next := r.value + r.velocity
	slack := snapTolerance * math.Abs(r.velocity)
	if r.velocity >= 0 && next >= r.target-slack || r.velocity <= 0 && next <= r.target+slack {
		next = r.target
	}
	r.value = next
	return true
}

// Gain maps a perceptual loudness in [0,1] to a linear amplitude. It is an
// odd polynomial: loudness³ times a cubic in loudness², all coefficients
// positive, so it is monotonically increasing with Gain(0) = 0.
func Gain(loudness float64) float64 {
	x2 := loudness * loudness
	h := 0.0059417208181036605
	h = 0.049999928953109174 + x2*h
	h = 0.19999977264356106 + x2*h
	h = 0.7751560075753159 + x2*h
	return x2 * loudness * h * 0.5
}
