// Package source holds the borrowed text the compiler reads a program
// from, paired with a name used to prefix diagnostics.
package source

import "os"

// Buffer is the text a Rack program was read from, plus the name it
// should be reported under. The text outlives every token and context
// derived from it for the lifetime of a single compile.
type Buffer struct {
	name string
	text string
}

// New wraps already-read source text under the given diagnostic name.
func New(name, text string) *Buffer {
	return &Buffer{name: name, text: text}
}

// ReadFile reads a Rack source file from disk.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(path, string(data)), nil
}

// Name returns the diagnostic name for this buffer: the file path for
// ReadFile, or whatever name was passed to New.
func (b *Buffer) Name() string {
	return b.name
}

// Text returns the full source text.
func (b *Buffer) Text() string {
	return b.text
}
