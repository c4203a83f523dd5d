package protocol

// Batcher collects the messages of one frame into a batch. Consecutive
// Updates of the same id collapse into the latest one; every other message is
// kept in order. The zero value is ready to use.
type Batcher struct {
	words []uint16
	gen   uint32
	last  [NumIDs]pending
}

// pending remembers where the most recent message of an id sits in the
// current batch. It is stale unless gen matches the batcher's generation.
type pending struct {
	gen    uint32
	offset int32
	kind   Kind
}

func (b *Batcher) Push(m Message) error {
	w, err := Encode(m)
	if err != nil {
		return err
	}
	if b.gen == 0 {
		b.gen = 1
	}
	p := &b.last[m.ID]
	if m.Kind == Update && p.gen == b.gen && p.kind == Update {
		copy(b.words[p.offset:], w[:])
		return nil
	}
	*p = pending{gen: b.gen, offset: int32(len(b.words)), kind: m.Kind}
	b.words = append(b.words, w[:]...)
	return nil
}

func (b *Batcher) Add(id int, pitch, loudness float64) error {
	return b.Push(Message{ID: id, Kind: Add, Pitch: pitch, Loudness: loudness})
}

func (b *Batcher) Update(id int, pitch, loudness float64) error {
	return b.Push(Message{ID: id, Kind: Update, Pitch: pitch, Loudness: loudness})
}

func (b *Batcher) Remove(id int) error {
	return b.Push(Message{ID: id, Kind: Remove})
}

// Len returns the number of messages pending.
func (b *Batcher) Len() int {
	return len(b.words) / WordsPerMessage
}

// Flush appends the pending batch to dst and starts a new one.
func (b *Batcher) Flush(dst []uint16) []uint16 {
	dst = append(dst, b.words...)
	b.words = b.words[:0]
	b.gen++
	if b.gen == 0 { // wrapped; forget everything
		b.last = [NumIDs]pending{}
		b.gen = 1
	}
	return dst
}
