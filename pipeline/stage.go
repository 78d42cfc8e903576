package pipeline

import (
	"context"
	"sync"

	"github.com/jbvmio/pumper/log"
)

// Stage runs its Processors over each Data in arrival order.
// Data is handled one at a time so a Stage never reorders its input.
type Stage struct {
	in         chan Data
	out        chan Data
	errs       chan error
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	CTX        context.Context
	Processors []DataFunc
	l          log.Logger
}

// NewStage returns a new Stage.
func NewStage(ctx context.Context, l log.Logger) *Stage {
	if l == nil {
		l = log.NewNoop()
	}
	return &Stage{
		in:       make(chan Data),
		out:      make(chan Data),
		errs:     make(chan error),
		stopChan: make(chan struct{}),
		CTX:      ctx,
		l:        l,
	}
}

// In returns the ingesting channel for Data.
func (s *Stage) In() chan Data {
	return s.in
}

// Out returns the output channel for Data. It is closed once the Stage has stopped.
func (s *Stage) Out() chan Data {
	return s.out
}

// Error returns the error channel.
func (s *Stage) Error() chan error {
	return s.errs
}

// Run starts processing data through the stage.
func (s *Stage) Run() {
	s.l.Debugf("starting stage with %d processor(s)", len(s.Processors))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.out)
	runStage:
		for {
			select {
			case <-s.stopChan:
				s.l.Debugf("received stop signal, stopping ...")
				break runStage
			case <-s.CTX.Done():
				s.l.Debugf("received completion signal, stopping ...")
				break runStage
			case d, ok := <-s.in:
				if !ok {
					s.l.Debugf("input closed, stopping ...")
					break runStage
				}
				if !s.process(d) {
					continue
				}
				select {
				case s.out <- d:
				case <-s.stopChan:
					break runStage
				case <-s.CTX.Done():
					break runStage
				}
			}
		}
	}()
}

// process runs all Processors over d and reports whether d should travel on.
func (s *Stage) process(d Data) bool {
	for n, fn := range s.Processors {
		pass, err := fn(d)
		switch {
		case err != nil:
			s.l.Debugf("processor %d failed: %v", n, err)
			select {
			case s.errs <- err:
			case <-s.stopChan:
			case <-s.CTX.Done():
			}
			return false
		case !pass:
			s.l.Debugf("processor %d discarded data", n)
			return false
		}
	}
	return true
}

// Stop stops processing data within the stage and waits for it to finish.
func (s *Stage) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.l.Debugf("stage stopped")
}
