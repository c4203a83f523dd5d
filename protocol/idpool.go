package protocol

// IDPool hands out message ids to a control sender. Released ids go to the
// back of a queue, so an id is reused only after every other free id has
// been used. This gives a pending Remove of an id as much time as possible to
// reach the engine before the id is added again.
type IDPool struct {
	queue  [NumIDs]uint16
	head   int
	n      int
	inUse  [NumIDs]bool
	inited bool
}

func NewIDPool() *IDPool {
	p := &IDPool{}
	p.init()
	return p
}

func (p *IDPool) init() {
	for i := range p.queue {
		p.queue[i] = uint16(i)
	}
	p.n = NumIDs
	p.inited = true
}

// Acquire returns the next free id, or false if all ids are in use.
func (p *IDPool) Acquire() (int, bool) {
	if !p.inited {
		p.init()
	}
	if p.n == 0 {
		return 0, false
	}
	id := int(p.queue[p.head])
	p.head = (p.head + 1) % NumIDs
	p.n--
	p.inUse[id] = true
	return id, true
}

// Release returns id to the pool. Releasing an id that is not in use does
// nothing.
func (p *IDPool) Release(id int) {
	if id < 0 || id > MaxID || !p.inUse[id] {
		return
	}
	p.inUse[id] = false
	p.queue[(p.head+p.n)%NumIDs] = uint16(id)
	p.n++
}

// InUse returns the number of ids currently acquired.
func (p *IDPool) InUse() int {
	if !p.inited {
		return 0
	}
	return NumIDs - p.n
}
