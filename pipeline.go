package pumper

import (
	"context"
	"sync"
	"time"

	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/pipeline"
	"github.com/jbvmio/pumper/plugin"
)

// DrainTimeout bounds how long Stop waits for in-flight data to reach the Outputs.
var DrainTimeout = 5 * time.Second

// Pipelines is a collection of Pipelines.
type Pipelines struct {
	pls  []*Pipeline
	errs chan error
	l    log.Logger
}

// AddPipeline add a Pipeline to the Collection.
func (P *Pipelines) AddPipeline(p *Pipeline) {
	P.pls = append(P.pls, p)
}

// UseLogger assigns a logger for the Pipeline collection.
func (P *Pipelines) UseLogger(l log.Logger) {
	P.l = l
}

// Run starts the collection of Pipelines.
func (P *Pipelines) Run() error {
	if P.l == nil {
		P.l = log.NewNoop()
	}
	P.l.Infof("starting pipeline collection")
	P.errs = make(chan error, len(P.pls)*1000)
	for i := 0; i < len(P.pls); i++ {
		if P.pls[i].L == nil {
			P.pls[i].L = log.Named(P.l, P.pls[i].Name)
		}
		P.l.Infof("starting pipeline %s", P.pls[i].Name)
		if err := P.pls[i].Run(P.errs); err != nil {
			for j := i - 1; j >= 0; j-- {
				P.pls[j].Stop()
			}
			return err
		}
	}
	return nil
}

// Stop stops the collection of Pipelines.
func (P *Pipelines) Stop() {
	P.l.Infof("stopping pipeline collection")
	for i := 0; i < len(P.pls); i++ {
		P.l.Infof("stopping pipeline %s", P.pls[i].Name)
		P.pls[i].Stop()
	}
}

// Errors returns the error channel for receiving errors.
func (P *Pipelines) Errors() <-chan error {
	return P.errs
}

// Pipeline combines all plugins, drivers and stages for processing data.
// Data flows Inputs -> Stages -> Outputs and keeps the order in which each Input produced it.
type Pipeline struct {
	Name    string
	Inputs  []plugin.Input
	Outputs []plugin.Output
	// Stages are run in order, one pipeline.Stage per entry.
	Stages [][]pipeline.DataFunc
	Errs   chan error
	L      log.Logger

	pl      *pipeline.Pipeline
	ctx     context.Context
	stop    context.CancelFunc
	ingress sync.WaitGroup
	workers sync.WaitGroup
	egress  chan struct{}
}

// Run starts all the Pipeline components. Errors from plugins and stages are sent to errs.
func (p *Pipeline) Run(errs chan error) error {
	if p.L == nil {
		p.L = log.NewNoop()
	}
	p.ctx, p.stop = context.WithCancel(context.Background())
	p.pl = pipeline.NewPipeline(p.ctx, p.L)
	for _, fns := range p.Stages {
		s := pipeline.NewStage(p.ctx, p.L)
		s.Processors = fns
		p.pl.AddStages(s)
	}
	p.Errs = errs
	p.egress = make(chan struct{})

	p.L.Infof("starting %d output(s)", len(p.Outputs))
	for n, x := range p.Outputs {
		if err := x.Start(); err != nil {
			p.stopOutputs(p.Outputs[:n])
			p.stop()
			return err
		}
		p.forwardErrs(x.Errors())
	}
	p.pl.Run()
	go p.startEgress()
	p.forwardErrs(p.pl.Error())

	p.L.Infof("starting %d input(s)", len(p.Inputs))
	for _, x := range p.Inputs {
		if err := x.Start(); err != nil {
			p.L.Errorf("input failed to start: %v", err)
			p.sendErr(err)
			continue
		}
		p.forwardErrs(x.Errors())
		p.ingress.Add(1)
		go p.startIngress(x)
	}
	go func() {
		p.ingress.Wait()
		p.L.Debugf("all inputs finished, closing pipeline")
		close(p.pl.In())
	}()
	p.L.Infof("pipeline started")
	return nil
}

// Errors returns the error channel for receiving errors.
func (p *Pipeline) Errors() <-chan error {
	return p.Errs
}

// Stop stops the Inputs, drains in-flight data to the Outputs and then stops the Outputs.
func (p *Pipeline) Stop() {
	p.L.Infof("received stop request")
	p.L.Infof("stopping %d input(s)", len(p.Inputs))
	for _, x := range p.Inputs {
		if err := x.Stop(); err != nil {
			p.L.Warnf("error stopping input: %v", err)
		}
	}
	select {
	case <-p.egress:
	case <-time.After(DrainTimeout):
		p.L.Warnf("timed out draining pipeline, discarding in-flight data")
	}
	p.stop()
	p.pl.Stop()
	<-p.egress
	p.stopOutputs(p.Outputs)
	p.workers.Wait()
	p.L.Infof("pipeline stopped")
}

func (p *Pipeline) stopOutputs(outputs []plugin.Output) {
	p.L.Infof("stopping %d output(s)", len(outputs))
	for _, x := range outputs {
		if err := x.Stop(); err != nil {
			p.L.Warnf("error stopping output: %v", err)
		}
	}
}

func (p *Pipeline) startIngress(input plugin.Input) {
	defer p.ingress.Done()
	for data := range input.Source() {
		select {
		case p.pl.In() <- pipeline.NewData(data):
		case <-p.ctx.Done():
			p.L.Debugf("pipeline is done, discarding data from input")
		}
	}
	p.L.Debugf("input finished")
}

func (p *Pipeline) startEgress() {
	defer close(p.egress)
	for {
		select {
		case <-p.ctx.Done():
			p.L.Debugf("pipeline is done, stopping egress")
			return
		case data, ok := <-p.pl.Out():
			if !ok {
				p.L.Debugf("pipeline output drained")
				return
			}
			b := data.Bytes()
			for _, out := range p.Outputs {
				select {
				case out.Destination() <- b:
				case <-p.ctx.Done():
					p.L.Debugf("pipeline is done, skip sending to output")
				}
			}
		}
	}
}

// forwardErrs relays errs to the Pipeline error channel until the Pipeline stops.
func (p *Pipeline) forwardErrs(errs <-chan error) {
	p.workers.Add(1)
	go func() {
		defer p.workers.Done()
		for {
			select {
			case <-p.ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					return
				}
				p.sendErr(err)
			}
		}
	}()
}

func (p *Pipeline) sendErr(err error) {
	select {
	case p.Errs <- err:
	default:
		p.L.Errorf("error channel full, dropping error: %v", err)
	}
}
