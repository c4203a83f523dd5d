package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output decides where the generated files of the command line tools go.
type Output struct {
	// Path is a directory, or a file name whose extension is replaced. Empty
	// means the working directory.
	Path      string
	Stdout    bool // write the contents to standard output instead
	List      bool // only print the names of the files that would change
	NoClobber bool // fail instead of overwriting a file with other contents
}

var ErrWouldOverwrite = errors.New("file would be overwritten")

// Write writes contents to a file named after source, with its extension
// replaced by extension.
func (o Output) Write(source, extension string, contents []byte) error {
	if o.Stdout {
		_, err := os.Stdout.Write(contents)
		return err
	}
	name, err := o.target(source, extension)
	if err != nil {
		return err
	}
	if original, err := os.ReadFile(name); err == nil {
		if bytes.Equal(original, contents) {
			return nil
		}
		if o.NoClobber && !o.List {
			return fmt.Errorf("%w: %v", ErrWouldOverwrite, name)
		}
	}
	if o.List {
		fmt.Println(name)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	if err := os.WriteFile(name, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %w", name, err)
	}
	return nil
}

func (o Output) target(source, extension string) (string, error) {
	dir, base := "", filepath.Base(source)
	if o.Path != "" {
		if info, err := os.Stat(o.Path); err == nil && info.IsDir() {
			dir = o.Path
		} else {
			d, b := filepath.Split(o.Path)
			dir = d
			if b != "" {
				base = b
			}
		}
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
		}
		dir = wd
	}
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+extension), nil
}
