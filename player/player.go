// Package player runs a harmonic.Synth inside an audio callback. Control
// batches arrive asynchronously through a Broker and are applied, in arrival
// order, at the start of each callback; the callback is then rendered in
// blocks of the configured size.
package player

import (
	"errors"
	"fmt"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/protocol"
)

type (
	// Player is the audio player, run in the audio thread. It is controlled
	// by messages from the broker and reports back to the host through the
	// broker. Only the audio thread may call Process.
	Player struct {
		synth    harmonic.Synth   // nil after a crash or a panic
		synther  harmonic.Synther // used to create new synths
		config   harmonic.Config
		broker   *Broker
		meter    *Meter
		recorder *Recorder // nil when not recording
		frame    int       // absolute frames rendered
	}
)

func NewPlayer(broker *Broker, synther harmonic.Synther, config harmonic.Config) *Player {
	p := &Player{
		broker:  broker,
		synther: synther,
		config:  config,
		meter:   NewMeter(config.SampleRate),
	}
	p.createSynth()
	return p
}

// Process drains the queued control batches, applies them and renders the
// buffer. It never blocks, and in steady state it does not allocate.
func (p *Player) Process(buffer harmonic.AudioBuffer) {
	p.processMessages()
	for len(buffer) > 0 {
		n := min(p.config.BlockSize, len(buffer))
		p.render(buffer[:n])
		p.meter.Update(buffer[:n])
		buffer = buffer[n:]
		p.frame += n
	}
	if p.recorder != nil {
		p.recorder.Advance(p.frame)
	}
	p.send(nil)
}

// Frame returns the number of frames rendered so far.
func (p *Player) Frame() int { return p.frame }

func (p *Player) render(buffer harmonic.AudioBuffer) {
	if p.synth == nil {
		clear(buffer)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.synth = nil
			clear(buffer)
			p.SendAlert("PlayerCrash", fmt.Sprintf("synth.Render: %v", r), Error)
		}
	}()
	p.synth.Render(buffer)
}

func (p *Player) processMessages() {
loop:
	for { // process new message
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case *[]uint16:
				p.apply(*m)
				p.broker.PutBatch(m)
			case []uint16:
				p.apply(m)
			case PanicMsg:
				if m {
					p.synth = nil
					p.meter.Reset()
				} else {
					p.createSynth()
				}
			case RecordingMsg:
				if m {
					p.recorder = NewRecorder(p.config.SampleRate)
				} else if p.recorder != nil {
					score := p.recorder.Score()
					p.recorder = nil
					p.send(&score)
				}
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

func (p *Player) apply(batch []uint16) {
	if p.synth == nil {
		return
	}
	if err := p.synth.Apply(batch); err != nil {
		if errors.Is(err, protocol.ErrProtocolViolation) {
			p.SendAlert("ProtocolViolation", err.Error(), Warning)
			return
		}
		p.SendAlert("ApplyFailed", err.Error(), Error)
		return
	}
	if p.recorder != nil {
		p.recorder.Record(p.frame, batch)
	}
}

func (p *Player) createSynth() {
	synth, err := p.synther.Synth(p.config)
	if err != nil {
		p.synth = nil
		p.SendAlert("PlayerCrash", fmt.Sprintf("synther.Synth: %v", err), Error)
		return
	}
	p.synth = synth
}

func (p *Player) SendAlert(name, message string, priority AlertPriority) {
	p.send(Alert{
		Name:     name,
		Priority: priority,
		Message:  message,
	})
}

// all sends from player are always non-blocking, to ensure that the player thread cannot end up in a dead-lock
func (p *Player) send(message any) {
	numVoices := 0
	if p.synth != nil {
		numVoices = p.synth.NumVoices()
	}
	TrySend(p.broker.ToHost, MsgToHost{
		HasLevel:  true,
		Level:     p.meter.Level(),
		NumVoices: numVoices,
		Panic:     p.synth == nil,
		Data:      message,
	})
}
