package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/harmonicpad/harmonic/cmd"
	"github.com/harmonicpad/harmonic/compiler"
	"github.com/harmonicpad/harmonic/version"
)

func main() {
	var out cmd.Output
	flag.BoolVar(&out.NoClobber, "n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	flag.BoolVar(&out.List, "l", false, "Do not write files; just list files that would change instead.")
	flag.BoolVar(&out.Stdout, "s", false, "Do not write files; write to standard output instead.")
	flag.StringVar(&out.Path, "o", "", "Directory or filename where to write the generated code. Extension is ignored. Directory and its parents are created if needed. By default, files are named after the config file, or harmonic.* when no config is given.")
	help := flag.Bool("h", false, "Show help.")
	tmplDir := flag.String("t", "", "Use the templates in this directory instead of the standard templates.")
	extensions := flag.String("e", "", "Output only the generated files with these comma separated extensions. For example: h,js")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(0)
	}
	if err := run(out, *tmplDir, *extensions, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out cmd.Output, tmplDir, extensions, configFile string) error {
	comp, err := newCompiler(tmplDir)
	if err != nil {
		return err
	}
	config, err := cmd.LoadConfig(configFile)
	if err != nil {
		return err
	}
	var exts []string
	if extensions != "" {
		exts = strings.Split(extensions, ",")
	}
	files, err := comp.Generate(config, exts...)
	if err != nil {
		return fmt.Errorf("generating constants failed: %w", err)
	}
	source := configFile
	if source == "" {
		source = "harmonic"
	}
	var failed bool
	for _, f := range files {
		if err := out.Write(source, f.Extension, f.Contents); err != nil {
			fmt.Fprintf(os.Stderr, "error outputting %v file: %v\n", f.Extension, err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("some files could not be written")
	}
	return nil
}

func newCompiler(tmplDir string) (*compiler.Compiler, error) {
	if tmplDir == "" {
		return compiler.New()
	}
	return compiler.NewFromTemplates(tmplDir)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Generates the control protocol constants for senders written in C or JavaScript.\nUsage: %s [flags] [config file]\n", os.Args[0])
	flag.PrintDefaults()
}
