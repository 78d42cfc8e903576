package osio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/plugin"
	"github.com/jbvmio/pumper/pump"
	"github.com/jbvmio/pumper/source"
	"gopkg.in/yaml.v2"
)

// StdInputConfig contains configuration details when using the StdInput Plugin.
type StdInputConfig struct {
	PumpConfig `yaml:",inline"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *StdInputConfig) Configure(details map[string]interface{}) error {
	if err := configure(details, c); err != nil {
		return fmt.Errorf("invalid stdin input configuration: %w", err)
	}
	return c.defaults(`stdin`)
}

// CreateInput creates an Input based on the Config.
func (c *StdInputConfig) CreateInput() (plugin.Input, error) {
	return newStdInput(c, os.Stdin), nil
}

func newStdInput(c *StdInputConfig, f *os.File) *StdInput {
	in := newPumpedInput(c.PumpConfig)
	in.open = func() (pump.Source, error) {
		return source.NewFile(f), nil
	}
	return &StdInput{in}
}

// StdInput pumps the standard input of the process. Stdin is never closed by the Plugin.
type StdInput struct {
	*pumpedInput
}

// StdOutputConfig contains configuration details when using the StdOutput Plugin.
type StdOutputConfig struct {
	Newline bool `yaml:"newline" json:"newline"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *StdOutputConfig) Configure(details map[string]interface{}) error {
	if err := configure(details, c); err != nil {
		return fmt.Errorf("invalid stdout output configuration: %w", err)
	}
	return nil
}

// CreateOutput creates an Output based on the Config.
func (c *StdOutputConfig) CreateOutput() (plugin.Output, error) {
	return newStdOutput(os.Stdout, c.Newline), nil
}

func newStdOutput(w io.Writer, newline bool) *StdOutput {
	return &StdOutput{
		w:        bufio.NewWriter(w),
		newline:  newline,
		data:     make(chan []byte),
		errs:     make(chan error, defaultBuffer),
		stopChan: make(chan struct{}),
		l:        log.NewNoop(),
	}
}

// StdOutput writes to stdout.
type StdOutput struct {
	w        *bufio.Writer
	newline  bool
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	l        log.Logger
}

// UseLogger assigns a logger for the Output.
func (out *StdOutput) UseLogger(l log.Logger) {
	if l == nil {
		l = log.NewNoop()
	}
	out.l = l
}

// Start starts the plugin.
func (out *StdOutput) Start() error {
	out.wg.Add(1)
	go func() {
		defer out.wg.Done()
		defer out.w.Flush()
	outLoop:
		for {
			select {
			case <-out.stopChan:
				break outLoop
			case b := <-out.data:
				if err := writeRecord(out.w, b, out.newline); err != nil {
					out.errs <- fmt.Errorf("stdout output: %w", err)
					continue
				}
				// flush when nothing else is queued so interactive output is not held back.
				if len(out.data) == 0 {
					out.w.Flush()
				}
			}
		}
		out.l.Debugf("stdout output stopped")
	}()
	return nil
}

// Stop stops the plugin.
func (out *StdOutput) Stop() error {
	out.stopOnce.Do(func() {
		close(out.stopChan)
	})
	out.wg.Wait()
	return nil
}

// Destination returns the channel used for accept data to the intended Plugin destination.
func (out *StdOutput) Destination() chan<- []byte {
	return out.data
}

// Errors returns the error channel for the Output Plugin.
func (out *StdOutput) Errors() <-chan error {
	return out.errs
}

// writeRecord writes b, terminating it with a newline when newline is set.
func writeRecord(w io.Writer, b []byte, newline bool) error {
	if _, err := w.Write(b); err != nil {
		return err
	}
	if newline {
		_, err := w.Write([]byte{'\n'})
		return err
	}
	return nil
}

// configure decodes details into cfg using a yaml round trip.
func configure(details map[string]interface{}, cfg interface{}) error {
	y, err := yaml.Marshal(details)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(y, cfg)
}
