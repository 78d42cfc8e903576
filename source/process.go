package source

import (
	"os"
	"os/exec"
	"sync"

	"github.com/pkg/errors"
)

// Process spawns a command and exposes its standard output as a File source.
type Process struct {
	// Dir, Env and MergeStderr must be set before Start.
	Dir         string
	Env         []string
	MergeStderr bool

	cmd     *exec.Cmd
	r       *os.File
	src     *File
	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

// NewProcess returns a Process for the named program and arguments.
func NewProcess(name string, args ...string) *Process {
	return &Process{
		cmd:    exec.Command(name, args...),
		exited: make(chan struct{}),
	}
}

// Start spawns the process.
func (p *Process) Start() error {
	if p.cmd.Process != nil {
		return errors.New("process already started")
	}
	r, w, err := os.Pipe()
	if err != nil {
		return errors.Wrap(err, "could not create output pipe")
	}
	p.cmd.Dir = p.Dir
	if len(p.Env) > 0 {
		p.cmd.Env = append(os.Environ(), p.Env...)
	}
	p.cmd.Stdout = w
	if p.MergeStderr {
		p.cmd.Stderr = w
	}
	if err := p.cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return errors.Wrapf(err, "could not start %s", p.cmd.Path)
	}
	// the child holds its own copy, closing ours lets the reader observe the hangup.
	w.Close()
	p.r = r
	p.src = NewFile(r)
	go func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
	}()
	return nil
}

// Source returns the process output. It is nil before Start.
func (p *Process) Source() *File {
	return p.src
}

// Pid returns the process id, or 0 before Start.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Exited is closed once the process has exited.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Wait waits for the process to exit and returns its exit status as an error.
func (p *Process) Wait() error {
	if p.cmd.Process == nil {
		return errors.New("process not started")
	}
	<-p.exited
	return p.waitErr
}

// Close kills the process if it is still running, waits for it and releases the output pipe.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		if p.cmd.Process == nil {
			return
		}
		select {
		case <-p.exited:
		default:
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.closeErr = errors.Wrap(err, "could not kill process")
			}
			<-p.exited
		}
		if err := p.r.Close(); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
	})
	return p.closeErr
}
