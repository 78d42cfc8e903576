// Package source provides pump sources backed by files, pipes, spawned processes and memory.
package source

import (
	"os"

	"github.com/pkg/errors"
)

// Errors returned by sources.
var (
	ErrUnsupported = errors.New("available bytes query not supported on this platform")
	ErrClosed      = errors.New("source closed")
)

// File is a pump source over an *os.File such as a pipe, terminal, FIFO or regular file.
// The File does not take ownership of f.
type File struct {
	f  *os.File
	fd uintptr
}

// NewFile returns a File reading from f.
func NewFile(f *os.File) *File {
	return &File{
		f:  f,
		fd: f.Fd(),
	}
}

// Read reads from the underlying file.
func (s *File) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

// Name returns the name of the underlying file.
func (s *File) Name() string {
	return s.f.Name()
}

// Available returns the number of bytes which can be read without blocking.
// It returns io.EOF once the writing side has hung up and nothing is left to read.
func (s *File) Available() (int, error) {
	return available(s.fd)
}
