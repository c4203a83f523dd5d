package synth

import (
	"fmt"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
)

const initialVoices = 1 << 2

type (
	// registry owns every voice record. active is dense and unordered;
	// index maps an id to its position in active, or -1. For every i,
	// index[active[i].id] == i.
	registry struct {
		active   []entry
		index    [protocol.NumIDs]int32
		free     []*voice // LIFO
		total    int      // records ever allocated
		phase    []float64
		nextSlot int
	}

	entry struct {
		id    int
		voice *voice
	}
)

func newRegistry() *registry {
	r := &registry{
		active: make([]entry, 0, initialVoices),
		free:   make([]*voice, 0, initialVoices),
		phase:  make([]float64, initialVoices*harmonic.MaxHarmonics),
	}
	for i := range r.index {
		r.index[i] = -1
	}
	for i := 0; i < initialVoices; i++ {
		r.free = append(r.free, r.newVoice())
	}
	return r
}

// newVoice allocates a record and a phase slot for it, doubling the phase
// storage when it is full. Existing slot offsets stay valid.
func (r *registry) newVoice() *voice {
	if r.nextSlot+harmonic.MaxHarmonics > len(r.phase) {
		phase := make([]float64, max(2*len(r.phase), harmonic.MaxHarmonics))
		copy(phase, r.phase)
		r.phase = phase
	}
	v := &voice{phaseSlot: r.nextSlot}
	r.nextSlot += harmonic.MaxHarmonics
	r.total++
	if cap(r.free) < r.total {
		// make sure reclaim can push every record back without allocating
		free := make([]*voice, len(r.free), 2*r.total)
		copy(free, r.free)
		r.free = free
	}
	return v
}

func (r *registry) lookup(id int) *voice {
	if id < 0 || id >= len(r.index) {
		return nil
	}
	if i := r.index[id]; i >= 0 {
		return r.active[i].voice
	}
	return nil
}

// add starts a voice for id. If id is already active, its record is
// restarted in place: same slot, same position in the active list.
func (r *registry) add(id int, semitone, loudness, rate float64) *voice {
	v := r.lookup(id)
	if v == nil {
		if n := len(r.free); n > 0 {
			v = r.free[n-1]
			r.free = r.free[:n-1]
		} else {
			v = r.newVoice()
		}
		r.index[id] = int32(len(r.active))
		r.active = append(r.active, entry{id: id, voice: v})
	}
	v.start(semitone, loudness, rate)
	clear(r.slot(v))
	return v
}

func (r *registry) slot(v *voice) []float64 {
	return r.phase[v.phaseSlot : v.phaseSlot+harmonic.MaxHarmonics]
}

// reclaim moves every finished voice back to the free pool. Removal swaps the
// last entry into the hole, so the list stays dense. The records are not
// cleared; add reinitializes them.
func (r *registry) reclaim() {
	for j := len(r.active) - 1; j >= 0; j-- {
		e := r.active[j]
		if !e.voice.finished() {
			continue
		}
		r.free = append(r.free, e.voice)
		r.index[e.id] = -1
		last := len(r.active) - 1
		if j != last {
			r.active[j] = r.active[last]
			r.index[r.active[j].id] = int32(j)
		}
		r.active[last] = entry{}
		r.active = r.active[:last]
	}
}

// check verifies the index invariant.
func (r *registry) check() error {
	seen := 0
	for id, i := range r.index {
		if i < 0 {
			continue
		}
		seen++
		if int(i) >= len(r.active) {
			return fmt.Errorf("id %d maps to %d, beyond %d active voices", id, i, len(r.active))
		}
		if r.active[i].id != id {
			return fmt.Errorf("id %d maps to entry %d holding id %d", id, i, r.active[i].id)
		}
	}
	if seen != len(r.active) {
		return fmt.Errorf("%d ids indexed but %d voices active", seen, len(r.active))
	}
	return nil
}
