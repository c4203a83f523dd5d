//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/player"
)

type (
	// RTMIDIContext reads the MIDI input devices through rtmidi. Messages of
	// the open device are translated in a goroutine of their own and sent to
	// the player as batches; a burst of messages becomes one batch.
	RTMIDIContext struct {
		driver       *rtmididrv.Driver
		currentIn    drivers.In
		stop         func()
		inputDevices []RTMIDIDevice
		translator   *Translator
		sender       *Sender
		events       chan midi.Message
		closeRouter  chan struct{}
		routerDone   chan struct{}
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the driver and starts routing MIDI messages to the broker.
func NewContext(broker *player.Broker, config harmonic.Config) *RTMIDIContext {
	m := &RTMIDIContext{
		translator:  NewTranslator(config),
		events:      make(chan midi.Message, 1024),
		closeRouter: make(chan struct{}),
		routerDone:  make(chan struct{}),
	}
	m.sender = NewSender(m.translator, broker)
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	if m.driver != nil {
		if ins, err := m.driver.Ins(); err == nil {
			for _, in := range ins {
				m.inputDevices = append(m.inputDevices, RTMIDIDevice{context: m, in: in})
			}
		}
	}
	go m.route()
	return m
}

func (m *RTMIDIContext) Inputs(yield func(player.MIDIInputDevice) bool) {
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) Support() player.MIDISupport {
	if m.driver == nil {
		return player.MIDISupportNoDriver
	}
	return player.MIDISupported
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in && d.in.IsOpen() {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	c.closeInput()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn, c.stop = d.in, stop
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn != d.in {
		return nil
	}
	return d.context.closeInput()
}

func (d RTMIDIDevice) IsOpen() bool { return d.in.IsOpen() }

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) closeInput() error {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	var err error
	if c.currentIn != nil && c.currentIn.IsOpen() {
		err = c.currentIn.Close()
	}
	c.currentIn = nil
	return err
}

func (c *RTMIDIContext) Close() {
	c.closeInput()
	close(c.closeRouter)
	<-c.routerDone
	if c.driver != nil {
		c.driver.Close()
	}
}

// HandleMessage is called by the driver. It never blocks; if the router is
// lagging behind, the message is dropped.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	player.TrySend(c.events, msg)
}

// retryInterval is how long the router waits before resending a batch the
// player queue could not take.
const retryInterval = 5 * time.Millisecond

func (c *RTMIDIContext) route() {
	defer close(c.routerDone)
	var retry <-chan time.Time
	for {
		select {
		case <-c.closeRouter:
			c.translator.AllOff()
			for i := 0; !c.sender.Send() && i < 100; i++ {
				time.Sleep(retryInterval)
			}
			return
		case msg := <-c.events:
			c.translator.Translate(msg)
		drain:
			for {
				select {
				case msg := <-c.events:
					c.translator.Translate(msg)
				default:
					break drain
				}
			}
		case <-retry:
		}
		retry = nil
		if !c.sender.Send() {
			retry = time.After(retryInterval)
		}
	}
}
