// Package compiler generates the constants a control sender needs to speak
// the control protocol, for senders written in other languages. The output is
// produced from text templates; the default templates are embedded and
// cover C and JavaScript.
package compiler

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"

	"github.com/harmonicpad/harmonic"
)

type (
	Compiler struct {
		templates *template.Template
	}

	// File is one generated source file.
	File struct {
		Extension string // with the leading dot, e.g. ".h"
		Contents  []byte
	}
)

//go:embed templates/*
var templateFS embed.FS

// New returns a new compiler using the default templates.
func New() (*Compiler, error) {
	return NewFromFS(templateFS, "templates")
}

// NewFromTemplates parses every file with an extension in dir as a template.
func NewFromTemplates(dir string) (*Compiler, error) {
	return NewFromFS(os.DirFS(dir), ".")
}

// NewFromFS parses the templates found in dir of fsys. Templates without an
// extension in their name may only hold {{define}}d helpers.
func NewFromFS(fsys fs.FS, dir string) (*Compiler, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(fsys, path.Join(dir, "*.*"))
	if err != nil {
		return nil, fmt.Errorf("could not parse templates in %q: %w", dir, err)
	}
	return &Compiler{templates: tmpl}, nil
}

// Extensions lists the extensions of the files the compiler generates.
func (c *Compiler) Extensions() []string {
	var ret []string
	for _, t := range c.templates.Templates() {
		if ext := path.Ext(t.Name()); ext != "" {
			ret = append(ret, ext)
		}
	}
	slices.Sort(ret)
	return slices.Compact(ret)
}

// Generate executes the templates with the protocol constants of config,
// ordered by extension. When extensions are given, only those files are
// generated; the leading dot is optional.
func (c *Compiler) Generate(config harmonic.Config, extensions ...string) ([]File, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	want := func(ext string) bool {
		return len(extensions) == 0 || slices.ContainsFunc(extensions, func(e string) bool {
			return "."+strings.TrimPrefix(e, ".") == ext
		})
	}
	data := NewProtocolMacros(config)
	var files []File
	for _, t := range c.templates.Templates() {
		ext := path.Ext(t.Name())
		if ext == "" || !want(ext) {
			continue
		}
		var b strings.Builder
		if err := t.Execute(&b, data); err != nil {
			return nil, fmt.Errorf("could not execute template %q: %w", t.Name(), err)
		}
		files = append(files, File{Extension: ext, Contents: []byte(b.String())})
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Extension, b.Extension) })
	return files, nil
}

// Constants is Generate keyed by extension.
func (c *Compiler) Constants(config harmonic.Config) (map[string]string, error) {
	files, err := c.Generate(config)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]string, len(files))
	for _, f := range files {
		ret[f.Extension] = string(f.Contents)
	}
	return ret, nil
}
