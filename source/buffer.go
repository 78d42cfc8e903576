package source

import (
	"bytes"
	"io"
	"sync"
)

// Buffer is an in-memory source which is safe for concurrent use.
// Writes are buffered until read. After Close, Available reports io.EOF
// once the buffered bytes have been drained.
type Buffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
	err    error
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Write appends p to the Buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	return b.buf.Write(p)
}

// Close marks the end of the stream.
func (b *Buffer) Close() error {
	return b.CloseWithError(nil)
}

// CloseWithError marks the end of the stream. Readers observe err instead of io.EOF
// once the buffered bytes have been drained.
func (b *Buffer) CloseWithError(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	b.closed = true
	b.err = err
	return nil
}

// Available returns the number of buffered bytes.
func (b *Buffer) Available() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.buf.Len(); n > 0 {
		return n, nil
	}
	if b.closed {
		return 0, b.err
	}
	return 0, nil
}

// Read reads buffered bytes. It does not block: with nothing buffered it returns 0
// or the close error.
func (b *Buffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		if b.closed {
			return 0, b.err
		}
		return 0, nil
	}
	return b.buf.Read(p)
}
