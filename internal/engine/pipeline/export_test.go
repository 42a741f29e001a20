package pipeline

import "io"

// NewTailBuffer exposes the phase output buffer for testing.
func NewTailBuffer(limit int) interface {
	io.Writer
	String() string
} {
	return newTailBuffer(limit)
}
