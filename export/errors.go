package export

import "fmt"

// RenderError is returned when a graph could not be synthesized or the .wav
// file could not be written. No partial output is left behind.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed at %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// EncodeError is returned when the encoder failed to convert the rendered
// file at Path. The rendered file has already been removed.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s failed: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
