package player

import "github.com/harmonicpad/harmonic"

// Processor adapts a Player into a harmonic.AudioSource, so an AudioContext
// can pull audio from it.
type Processor struct {
	*Player
}

func NewProcessor(player *Player) *Processor {
	return &Processor{player}
}

func (p *Processor) ReadAudio(buf harmonic.AudioBuffer) (int, error) {
	p.Player.Process(buf)
	return len(buf), nil
}

func (p *Processor) Close() error {
	TrySend(p.broker.ToPlayer, any(PanicMsg(true)))
	return nil
}
