//go:build plugin

package main

import (
	"gitlab.com/gomidi/midi/v2"
	"pipelined.dev/audio/vst2"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/cmd"
	"github.com/harmonicpad/harmonic/gomidi"
	"github.com/harmonicpad/harmonic/player"
)

var PLUGIN_ID = [4]byte{'H', 'r', 'm', 'n'}

const PLUGIN_NAME = "Harmonic"

// VSTIProcessContext collects the MIDI events the host sends between two
// process calls and turns them into one control batch.
type VSTIProcessContext struct {
	translator *gomidi.Translator
	sender     *gomidi.Sender
	host       vst2.Host
}

func (c *VSTIProcessContext) handle(ev *vst2.MIDIEvent) {
	c.translator.Translate(midi.Message(ev.Data[:]))
}

// flush sends the collected batch to the player. It runs in the audio thread
// right before the player drains its queue, so the batch is applied in the
// same callback. A batch the queue cannot take goes out with the next one.
func (c *VSTIProcessContext) flush() {
	if c.sender.Pending() == 0 {
		return
	}
	c.sender.Send()
}

// sampleRate asks the host for its sample rate, falling back to the default.
func sampleRate(h vst2.Host) int {
	if info := h.GetTimeInfo(0); info != nil && info.SampleRate > 0 {
		return int(info.SampleRate)
	}
	return harmonic.DefaultSampleRate
}

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		config := harmonic.DefaultConfig()
		config.SampleRate = sampleRate(h)
		broker := player.NewBroker()
		p := player.NewPlayer(broker, cmd.MainSynther, config)
		translator := gomidi.NewTranslator(config)
		context := VSTIProcessContext{host: h, translator: translator, sender: gomidi.NewSender(translator, broker)}
		buf := make(harmonic.AudioBuffer, 1024)
		// the plugin has no GUI; drop whatever the player reports
		done := make(chan struct{})
		go broker.Discard(done)
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "harmonicpad",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					left := out.Channel(0)
					right := out.Channel(1)
					if len(buf) < out.Frames {
						buf = append(buf, make(harmonic.AudioBuffer, out.Frames-len(buf))...)
					}
					buf = buf[:out.Frames]
					context.flush()
					p.Process(buf)
					copy(left, buf)
					copy(right, buf)
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						a := ev.Event(i)
						switch v := a.(type) {
						case *vst2.MIDIEvent:
							context.handle(v)
						}
					}
				},
				CloseFunc: func() {
					context.translator.AllOff()
					context.flush()
					close(done)
				},
			}
	}
}

func main() {}
