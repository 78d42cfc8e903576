package osio

import (
	"sync"

	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/metrics"
	"github.com/jbvmio/pumper/pump"
	"github.com/pkg/errors"
)

const (
	defaultBuffer = 1000
)

// pumpedInput is the Input side shared by stdin, exec and file inputs. It opens its
// source on Start, runs a NonBlocking pump over it and forwards chunks, or lines when
// configured, onto the data channel.
type pumpedInput struct {
	cfg      PumpConfig
	open     func() (pump.Source, error)
	release  func() error
	exited   func(error) error
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	pump     *pump.NonBlocking
	framer   *lineFramer
	l        log.Logger

	lock    sync.Mutex
	started bool
	stopped bool
}

func newPumpedInput(cfg PumpConfig) *pumpedInput {
	in := &pumpedInput{
		cfg:      cfg,
		data:     make(chan []byte, cfg.Buffer),
		errs:     make(chan error, cfg.Buffer),
		stopChan: make(chan struct{}),
		l:        log.NewNoop(),
	}
	if cfg.Split == SplitLines {
		in.framer = newLineFramer(cfg.MaxLine)
	}
	return in
}

// UseLogger assigns a logger for the Input and its pump.
func (in *pumpedInput) UseLogger(l log.Logger) {
	if l == nil {
		l = log.NewNoop()
	}
	in.l = log.Named(l, in.cfg.Name)
}

// Start opens the source and starts pumping.
func (in *pumpedInput) Start() error {
	in.lock.Lock()
	defer in.lock.Unlock()
	if in.started || in.stopped {
		return errors.Errorf("%s input already started", in.cfg.Name)
	}
	src, err := in.open()
	if err != nil {
		return errors.Wrapf(err, "could not open %s input", in.cfg.Name)
	}
	in.pump = pump.NewNonBlocking(src, pump.CallbackFunc(in.deliver), in.closed)
	in.pump.UseLogger(in.l)
	if err := in.pump.Start(); err != nil {
		return err
	}
	in.started = true
	in.l.Infof("pumping %s input", in.cfg.Name)
	return nil
}

// Stop stops the pump and waits for it to exit before releasing the source.
func (in *pumpedInput) Stop() error {
	in.lock.Lock()
	defer in.lock.Unlock()
	if in.stopped {
		return nil
	}
	in.stopped = true
	close(in.stopChan)
	if in.started {
		in.pump.Stop()
		<-in.pump.Done()
	} else {
		close(in.data)
	}
	if in.release != nil {
		if err := in.release(); err != nil {
			return errors.Wrapf(err, "could not release %s input", in.cfg.Name)
		}
	}
	in.l.Infof("stopped %s input", in.cfg.Name)
	return nil
}

// Source returns the oncoming data channel for the Input Plugin.
func (in *pumpedInput) Source() <-chan []byte {
	return in.data
}

// Errors returns the error channel for the Input Plugin.
func (in *pumpedInput) Errors() <-chan error {
	return in.errs
}

func (in *pumpedInput) deliver(chunk []byte) {
	metrics.Get().ObserveChunk(in.cfg.Name, len(chunk))
	if in.framer != nil {
		in.framer.frame(chunk, in.send)
		return
	}
	in.send(chunk)
}

func (in *pumpedInput) send(b []byte) {
	select {
	case in.data <- b:
	case <-in.stopChan:
		in.l.Debugf("input stopping, discarding %d bytes", len(b))
	}
}

// closed runs on the pump goroutine once the pump has exited.
func (in *pumpedInput) closed() {
	if in.framer != nil {
		in.framer.flush(in.send)
	}
	err := in.pump.Err()
	reason := metrics.ReasonFailed
	switch {
	case err != nil:
	case !in.pump.Running():
		reason = metrics.ReasonStopped
	default:
		reason = metrics.ReasonInterrupted
	}
	metrics.Get().ObserveExit(in.cfg.Name, reason)
	if in.exited != nil {
		err = in.exited(err)
	}
	if err != nil {
		select {
		case in.errs <- errors.Wrapf(err, "%s input", in.cfg.Name):
		default:
			in.l.Warnf("error channel full, dropping: %v", err)
		}
	}
	close(in.data)
}
