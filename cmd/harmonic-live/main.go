package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/cmd"
	"github.com/harmonicpad/harmonic/oto"
	"github.com/harmonicpad/harmonic/player"
	"github.com/harmonicpad/harmonic/version"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")
var defaultMidiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
var configFile = flag.String("config", "", "engine configuration `file` (.yml or .json)")
var recordFile = flag.String("record", "", "record the played control events to a score `file` (.yml)")
var wavFile = flag.String("wav", "", "capture the audio output to a .wav `file` (32-bit float)")
var listInputs = flag.Bool("list", false, "list the MIDI input devices and exit")
var versionFlag = flag.Bool("v", false, "print version")

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	config, err := cmd.LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	broker := player.NewBroker()
	midiContext := cmd.NewMidiContext(broker, config)
	defer midiContext.Close()
	if *listInputs {
		for input := range midiContext.Inputs {
			fmt.Println(input)
		}
		return
	}
	input, err := player.OpenMIDIInput(midiContext, *defaultMidiInput)
	if err != nil {
		log.Printf("failed to open MIDI input: %v", err)
	} else {
		log.Printf("opened MIDI input '%s'", input)
	}
	var f *os.File
	if *cpuprofile != "" {
		f, err = os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}
	audioContext, err := oto.NewContext(config.SampleRate)
	if err != nil {
		log.Fatal(err)
	}
	p := player.NewPlayer(broker, cmd.MainSynther, config)
	if *recordFile != "" {
		broker.ToPlayer <- player.RecordingMsg(true)
	}
	var source harmonic.AudioSource = player.NewProcessor(p)
	var capture *os.File
	var sink *harmonic.WavSink
	var tap *player.Capture
	if *wavFile != "" {
		if capture, err = os.Create(*wavFile); err != nil {
			log.Fatal("could not create audio capture: ", err)
		}
		if sink, err = harmonic.NewWavSink(capture, config.SampleRate, false); err != nil {
			log.Fatal(err)
		}
		tap = player.NewCapture(sink)
		source = harmonic.Tee(source, tap)
	}
	audioCloser := audioContext.Play(source)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	var lastReport time.Time
loop:
	for {
		select {
		case <-interrupt:
			break loop
		case msg := <-broker.ToHost:
			if a, ok := msg.Data.(player.Alert); ok {
				log.Print(a)
			}
			if msg.HasLevel && time.Since(lastReport) > time.Second {
				lastReport = time.Now()
				log.Printf("voices: %d, peak: %.1f dB, rms: %.1f dB", msg.NumVoices, player.Decibels(msg.Level.Peak), player.Decibels(msg.Level.RMS))
			}
		}
	}
	if *recordFile != "" {
		broker.ToPlayer <- player.RecordingMsg(false)
		if err := saveRecording(broker, *recordFile); err != nil {
			log.Print(err)
		}
	}
	if err := audioCloser.Close(); err != nil {
		log.Print(err)
	}
	if capture != nil {
		capture.Close()
		log.Printf("captured %.1f s of audio to %v", float64(sink.NumSamples())/float64(config.SampleRate), *wavFile)
		if n := tap.Dropped(); n > 0 {
			log.Printf("%d blocks were dropped from the capture", n)
		}
	}
	if *cpuprofile != "" {
		pprof.StopCPUProfile()
		f.Close()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}

// saveRecording waits for the player to send the recording and writes it.
func saveRecording(broker *player.Broker, filename string) error {
	deadline := time.Now().Add(3 * time.Second)
	for {
		msg, ok := player.TimeoutReceive(broker.ToHost, time.Until(deadline))
		if !ok {
			return fmt.Errorf("timed out waiting for the recording")
		}
		score, ok := msg.Data.(*harmonic.Score)
		if !ok {
			continue
		}
		if len(score.Events) == 0 {
			return fmt.Errorf("nothing was recorded")
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("could not create recording: %w", err)
		}
		defer file.Close()
		if err := score.WriteYAML(file); err != nil {
			return err
		}
		log.Printf("recorded %d events to %v", len(score.Events), filename)
		return nil
	}
}
