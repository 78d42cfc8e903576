package osio

import (
	"errors"
	"fmt"

	"github.com/jbvmio/pumper/plugin"
	"github.com/jbvmio/pumper/pump"
	"github.com/jbvmio/pumper/source"
)

// ExecInputConfig contains configuration details when using the ExecInput Plugin.
type ExecInputConfig struct {
	PumpConfig `yaml:",inline"`
	Command    string   `yaml:"command" json:"command"`
	Args       []string `yaml:"args" json:"args"`
	Dir        string   `yaml:"dir" json:"dir"`
	Env        []string `yaml:"env" json:"env"`
	Stderr     bool     `yaml:"stderr" json:"stderr"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *ExecInputConfig) Configure(details map[string]interface{}) error {
	if err := configure(details, c); err != nil {
		return fmt.Errorf("invalid exec input configuration: %w", err)
	}
	if c.Command == "" {
		return errors.New("missing or invalid command for exec input")
	}
	return c.defaults(`exec:` + c.Command)
}

// CreateInput creates an Input based on the Config.
func (c *ExecInputConfig) CreateInput() (plugin.Input, error) {
	if c.Command == "" {
		return nil, errors.New("no command defined for exec input")
	}
	proc := source.NewProcess(c.Command, c.Args...)
	proc.Dir = c.Dir
	proc.Env = c.Env
	proc.MergeStderr = c.Stderr
	in := newPumpedInput(c.PumpConfig)
	in.open = func() (pump.Source, error) {
		if err := proc.Start(); err != nil {
			return nil, err
		}
		return proc.Source(), nil
	}
	in.release = proc.Close
	in.exited = func(err error) error {
		if !errors.Is(err, pump.ErrSourceClosed) {
			return err
		}
		// output closed on its own, report how the process ended instead.
		select {
		case <-proc.Exited():
		case <-in.stopChan:
			return nil
		}
		if werr := proc.Wait(); werr != nil {
			return fmt.Errorf("process %s exited: %w", c.Command, werr)
		}
		in.l.Infof("process %s exited", c.Command)
		return nil
	}
	return &ExecInput{pumpedInput: in, proc: proc}, nil
}

// ExecInput pumps the output of a spawned process.
// Stopping the Input kills the process if it is still running.
type ExecInput struct {
	*pumpedInput
	proc *source.Process
}

// Pid returns the process id of the spawned process, or 0 if not started.
func (in *ExecInput) Pid() int {
	return in.proc.Pid()
}
