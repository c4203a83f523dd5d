package gomidi

import (
	"github.com/harmonicpad/harmonic/player"
	"github.com/harmonicpad/harmonic/protocol"
)

// Sender delivers the batches of a Translator to the player. The translator
// forgets a note as soon as its Remove is collected, so a batch the broker
// cannot take is kept and sent ahead of the next one instead of being
// dropped.
type Sender struct {
	translator *Translator
	broker     *player.Broker
	backlog    []uint16
}

func NewSender(translator *Translator, broker *player.Broker) *Sender {
	return &Sender{translator: translator, broker: broker}
}

// Send flushes the translator and tries to deliver everything not yet
// delivered, in order. It never blocks. It returns false if something is
// left for a later Send.
func (s *Sender) Send() bool {
	s.backlog = s.translator.Flush(s.backlog)
	if len(s.backlog) == 0 {
		return true
	}
	if !s.broker.SendBatch(s.backlog) {
		return false
	}
	s.backlog = s.backlog[:0]
	return true
}

// Pending returns the number of messages waiting for a Send.
func (s *Sender) Pending() int {
	return len(s.backlog)/protocol.WordsPerMessage + s.translator.Pending()
}
