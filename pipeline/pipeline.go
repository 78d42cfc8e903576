package pipeline

import (
	"context"

	"github.com/jbvmio/pumper/log"
)

// Pipeline contains 0 or more Stages chained in order.
type Pipeline struct {
	in     chan Data
	out    chan Data
	errs   chan error
	CTX    context.Context
	Stages []*Stage
	l      log.Logger
}

// NewPipeline returns a new Pipeline.
func NewPipeline(ctx context.Context, l log.Logger) *Pipeline {
	if l == nil {
		l = log.NewNoop()
	}
	return &Pipeline{
		in:   make(chan Data),
		errs: make(chan error, 100),
		CTX:  ctx,
		l:    l,
	}
}

// In returns the ingesting channel for Data. Closing it drains and stops the Pipeline.
func (p *Pipeline) In() chan Data {
	return p.in
}

// Out returns the output or end result channel for Data. It is only valid after Run.
func (p *Pipeline) Out() chan Data {
	return p.out
}

// Error returns the error channel.
func (p *Pipeline) Error() chan error {
	return p.errs
}

// AddStages adds 1 or more Stages to the Pipeline.
func (p *Pipeline) AddStages(stages ...*Stage) {
	p.Stages = append(p.Stages, stages...)
}

func (p *Pipeline) configure() {
	linkedChan := p.in
	for i := 0; i < len(p.Stages); i++ {
		p.l.Debugf("configuring stage %d", i)
		p.Stages[i].errs = p.errs
		p.Stages[i].in = linkedChan
		linkedChan = p.Stages[i].out
	}
	p.out = linkedChan
}

// Run starts all Stages within the Pipeline.
func (p *Pipeline) Run() {
	p.configure()
	for n, s := range p.Stages {
		p.l.Debugf("running stage %d", n)
		s.Run()
	}
}

// Stop stops all Stages within the Pipeline.
func (p *Pipeline) Stop() {
	for n, s := range p.Stages {
		p.l.Debugf("stopping stage %d", n)
		s.Stop()
	}
}
