package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harmonicpad/harmonic"
	"github.com/harmonicpad/harmonic/cmd"
	"github.com/harmonicpad/harmonic/oto"
	"github.com/harmonicpad/harmonic/player"
	"github.com/harmonicpad/harmonic/version"
)

type options struct {
	out    cmd.Output
	play   bool
	raw    bool
	wav    bool
	pcm16  bool
	stats  bool
	config harmonic.Config
}

func main() {
	var opt options
	flag.BoolVar(&opt.out.Stdout, "s", false, "Do not write files; write to standard output instead.")
	flag.StringVar(&opt.out.Path, "o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the current working directory.")
	flag.BoolVar(&opt.play, "p", false, "Play the input scores (default behaviour when no other output is defined).")
	flag.BoolVar(&opt.raw, "r", false, "Output the rendered score as .raw file. By default, saves mono float32 buffer to disk.")
	flag.BoolVar(&opt.wav, "w", false, "Output the rendered score as .wav file. By default, saves mono float32 buffer to disk.")
	flag.BoolVar(&opt.pcm16, "c", false, "Convert audio to 16-bit signed PCM when outputting.")
	flag.BoolVar(&opt.stats, "stats", false, "Print the peak and RMS level of each rendered score.")
	help := flag.Bool("h", false, "Show help.")
	configFile := flag.String("config", "", "Engine configuration file (.yml or .json). Defaults are used for missing values.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !opt.raw && !opt.wav {
		opt.play = true
	}
	var err error
	if opt.config, err = cmd.LoadConfig(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	files, err := scoreFiles(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var r renderer
	retval := 0
	for _, file := range files {
		if err := r.process(file, &opt); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

// scoreFiles expands directories into the score files they contain.
func scoreFiles(args []string) ([]string, error) {
	var ret []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			ret = append(ret, arg)
			continue
		}
		for _, pattern := range []string{"*.yml", "*.yaml", "*.json"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, fmt.Errorf("could not glob the path %v: %w", arg, err)
			}
			ret = append(ret, matches...)
		}
	}
	return ret, nil
}

// renderer keeps the audio context between scores; oto allows only one per
// process.
type renderer struct {
	audio *oto.OtoContext
}

func (r *renderer) process(filename string, opt *options) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	score, err := harmonic.ReadScore(file)
	file.Close()
	if err != nil {
		return err
	}
	config := opt.config
	if score.SampleRate > 0 {
		config.SampleRate = score.SampleRate
	}
	synth, err := cmd.MainSynther.Synth(config)
	if err != nil {
		return err
	}
	buffer, err := harmonic.Play(synth, score, config)
	if err != nil {
		return fmt.Errorf("harmonic.Play failed: %w", err)
	}
	if opt.stats {
		l := player.Measure(buffer)
		fmt.Fprintf(os.Stderr, "%v: %.2f s, peak %.1f dB, rms %.1f dB\n", filename,
			float64(len(buffer))/float64(config.SampleRate), player.Decibels(l.Peak), player.Decibels(l.RMS))
	}
	if opt.raw {
		raw, err := buffer.Raw(opt.pcm16)
		if err != nil {
			return err
		}
		if err := opt.out.Write(filename, ".raw", raw); err != nil {
			return fmt.Errorf("error outputting .raw file: %w", err)
		}
	}
	if opt.wav {
		wav, err := buffer.Wav(config.SampleRate, opt.pcm16)
		if err != nil {
			return err
		}
		if err := opt.out.Write(filename, ".wav", wav); err != nil {
			return fmt.Errorf("error outputting .wav file: %w", err)
		}
	}
	if opt.play {
		return r.play(buffer, config.SampleRate)
	}
	return nil
}

func (r *renderer) play(buffer harmonic.AudioBuffer, sampleRate int) error {
	if r.audio == nil {
		var err error
		if r.audio, err = oto.NewContext(sampleRate); err != nil {
			return fmt.Errorf("could not acquire oto AudioContext: %w", err)
		}
	} else if r.audio.SampleRate() != sampleRate {
		return fmt.Errorf("cannot play %v Hz after %v Hz in the same run", sampleRate, r.audio.SampleRate())
	}
	p := r.audio.Play(buffer.Source())
	p.Wait()
	return p.Close()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Command line utility for rendering and playing .yml/.json score files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
