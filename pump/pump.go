// Package pump moves bytes from sources which do not react well to interruption
// (stdin, the output of a spawned process, a FIFO) into a Callback without ever
// issuing a read which could block past a stop request.
package pump

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jbvmio/pumper/log"
	"github.com/pkg/errors"
)

// Fixed pump parameters.
const (
	BufferSize   = 1024
	PollInterval = 50 * time.Millisecond
)

// Errors returned by pumps.
var (
	ErrStarted      = errors.New("pump already started")
	ErrSourceClosed = errors.New("source unexpectedly closed")
)

// Source is a byte stream which can report how much can be read without blocking.
type Source interface {
	// Available returns the number of bytes which can be read right now without blocking.
	// io.EOF signals the source will not produce anymore.
	Available() (int, error)
	// Read follows io.Reader. A negative count is treated as end of stream.
	Read(p []byte) (int, error)
}

// Callback receives chunks read from a Source. The chunk is owned by the Callback.
type Callback interface {
	Call(chunk []byte)
}

// CallbackFunc adapts a func to a Callback.
type CallbackFunc func(chunk []byte)

// Call calls fn(chunk).
func (fn CallbackFunc) Call(chunk []byte) {
	fn(chunk)
}

// Pumper is implemented by pump strategies.
type Pumper interface {
	// Start runs the pump on its own goroutine.
	Start() error
	// Run runs the pump on the calling goroutine until it exits.
	Run()
	// Stop requests the pump to stop and signals the running goroutine.
	Stop()
	// Interrupt signals the running goroutine without clearing the running flag.
	Interrupt()
	// Done is closed once the pump has exited and its close hook has returned.
	Done() <-chan struct{}
	// Err returns the failure which terminated the pump, if any.
	Err() error
}

// lifecycle holds the state shared by pump strategies.
type lifecycle struct {
	running  atomic.Bool
	started  atomic.Bool
	callback Callback
	onClose  func()
	done     chan struct{}
	l        log.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	interrupt bool
	err       error
}

func (lc *lifecycle) init(cb Callback, onClose func()) {
	lc.callback = cb
	lc.onClose = onClose
	lc.done = make(chan struct{})
	lc.l = log.NewNoop()
	lc.running.Store(true)
}

// UseLogger assigns the logger used to report pump failures.
func (lc *lifecycle) UseLogger(l log.Logger) {
	if l == nil {
		l = log.NewNoop()
	}
	lc.l = l
}

// bind creates the execution handle of the goroutine running the pump.
// An Interrupt received before bind is applied immediately.
func (lc *lifecycle) bind() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.mu.Lock()
	lc.cancel = cancel
	if lc.interrupt {
		cancel()
	}
	lc.mu.Unlock()
	return ctx, cancel
}

// Stop clears the running flag and signals the bound goroutine.
func (lc *lifecycle) Stop() {
	lc.running.Store(false)
	lc.Interrupt()
}

// Interrupt signals the bound goroutine.
func (lc *lifecycle) Interrupt() {
	lc.mu.Lock()
	lc.interrupt = true
	if lc.cancel != nil {
		lc.cancel()
	}
	lc.mu.Unlock()
}

// Running reports whether the pump has not been asked to stop.
func (lc *lifecycle) Running() bool {
	return lc.running.Load()
}

// Done is closed once the pump has exited.
func (lc *lifecycle) Done() <-chan struct{} {
	return lc.done
}

// Err returns the failure which terminated the pump.
func (lc *lifecycle) Err() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.err
}

// exit records err, fires the close hook and releases Done waiters.
func (lc *lifecycle) exit(err error) {
	lc.mu.Lock()
	lc.err = err
	lc.mu.Unlock()
	defer close(lc.done)
	if lc.onClose != nil {
		lc.onClose()
	}
}
