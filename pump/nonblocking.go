package pump

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

// NonBlocking pumps a Source by polling Available and reading only when bytes are
// already buffered. While the Source is idle it waits PollInterval between polls,
// which is the only point a stop request is observed without data flowing.
//
// Use it for sources which do not unblock a pending read on interruption, such as
// stdin or the output of a spawned process. Do not use it for sources whose
// Available always reports 0.
type NonBlocking struct {
	lifecycle
	src Source
}

var _ Pumper = (*NonBlocking)(nil)

// NewNonBlocking returns a NonBlocking pump. onClose may be nil, otherwise it is
// called exactly once when the pump exits, whatever the reason.
func NewNonBlocking(src Source, cb Callback, onClose func()) *NonBlocking {
	p := &NonBlocking{src: src}
	p.init(cb, onClose)
	return p
}

// Start runs the pump on a new goroutine.
func (p *NonBlocking) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	go p.run()
	return nil
}

// Run runs the pump on the calling goroutine and returns once it exits.
// It returns immediately if the pump was already started.
func (p *NonBlocking) Run() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.run()
}

func (p *NonBlocking) run() {
	ctx, cancel := p.bind()
	var err error
	defer func() {
		cancel()
		p.exit(err)
	}()
	err = p.pump(ctx)
}

func (p *NonBlocking) pump(ctx context.Context) error {
	buf := make([]byte, BufferSize)
	idle := time.NewTimer(PollInterval)
	defer idle.Stop()
	for p.keepReading(ctx) {
	drain:
		for p.keepReading(ctx) {
			n, err := p.src.Available()
			if err != nil {
				return p.classify(ctx, err)
			}
			if n <= 0 {
				break drain
			}
			n, err = p.src.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				p.callback.Call(chunk)
			}
			switch {
			case n < 0:
				return p.classify(ctx, io.EOF)
			case err != nil:
				return p.classify(ctx, err)
			case n == 0:
				break drain
			}
		}
		if !p.keepReading(ctx) {
			break
		}
		idle.Reset(PollInterval)
		select {
		case <-ctx.Done():
		case <-idle.C:
		}
	}
	if p.Running() {
		p.l.Debugf("interrupted while pumping stream")
		return nil
	}
	p.l.Debugf("pump stopped")
	return nil
}

func (p *NonBlocking) keepReading(ctx context.Context) bool {
	return p.Running() && ctx.Err() == nil
}

// classify decides whether err ends the pump quietly or as a failure.
func (p *NonBlocking) classify(ctx context.Context, err error) error {
	switch {
	case !p.Running():
		p.l.Debugf("pump stopped: %v", err)
		return nil
	case ctx.Err() != nil:
		p.l.Debugf("interrupted while pumping stream: %v", err)
		return nil
	case errors.Is(err, io.EOF):
		err = ErrSourceClosed
	default:
		err = errors.Wrap(err, "pump read failed")
	}
	p.l.Errorf("error while pumping stream: %v", err)
	return err
}
