package osio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/metrics"
	"github.com/jbvmio/pumper/plugin"
	"github.com/jbvmio/pumper/pump"
	"github.com/jbvmio/pumper/source"
	"github.com/nxadm/tail"
)

const retryOpen = 5 * time.Second

// FileInputConfig contains configuration details when using the FileInput Plugin.
//
// Without Follow the path is opened once and pumped, which suits FIFOs and files
// appended in place. With Follow the file is tailed by name and survives rotation,
// records are always split into lines.
type FileInputConfig struct {
	PumpConfig     `yaml:",inline"`
	Path           string `yaml:"path" json:"path"`
	Follow         bool   `yaml:"follow" json:"follow"`
	StartBeginning bool   `yaml:"startBeginning" json:"startBeginning"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *FileInputConfig) Configure(details map[string]interface{}) error {
	if err := configure(details, c); err != nil {
		return fmt.Errorf("invalid file input configuration: %w", err)
	}
	if c.Path == "" {
		return errors.New("missing or invalid path for file input")
	}
	return c.defaults(`file:` + c.Path)
}

// CreateInput creates an Input based on the Config.
func (c *FileInputConfig) CreateInput() (plugin.Input, error) {
	if c.Path == "" {
		return nil, errors.New("no path defined for file input")
	}
	if c.Follow {
		return &FileInput{
			cfg:      *c,
			data:     make(chan []byte, c.Buffer),
			errs:     make(chan error, c.Buffer),
			stopChan: make(chan struct{}),
			l:        log.NewNoop(),
		}, nil
	}
	var f *os.File
	in := newPumpedInput(c.PumpConfig)
	in.open = func() (pump.Source, error) {
		// O_NONBLOCK keeps opening a FIFO from waiting on a writer.
		var err error
		f, err = os.OpenFile(c.Path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
		if err != nil {
			return nil, err
		}
		if !c.StartBeginning {
			if st, err := f.Stat(); err == nil && st.Mode().IsRegular() {
				f.Seek(0, io.SeekEnd)
			}
		}
		return source.NewFile(f), nil
	}
	in.release = func() error {
		if f == nil {
			return nil
		}
		return f.Close()
	}
	return &FileInput{pumped: in}, nil
}

// FileInput works with files as Input.
type FileInput struct {
	pumped *pumpedInput

	cfg      FileInputConfig
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	stopped  bool
	wg       sync.WaitGroup
	l        log.Logger
}

// UseLogger assigns a logger for the Input.
func (in *FileInput) UseLogger(l log.Logger) {
	if l == nil {
		l = log.NewNoop()
	}
	if in.pumped != nil {
		in.pumped.UseLogger(l)
		return
	}
	in.l = log.Named(l, in.cfg.Name)
}

// Start starts the plugin.
func (in *FileInput) Start() error {
	if in.pumped != nil {
		return in.pumped.Start()
	}
	whence := io.SeekEnd
	if in.cfg.StartBeginning {
		whence = io.SeekStart
	}
	conf := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Logger:    tail.DiscardingLogger,
		Location:  &tail.SeekInfo{Whence: whence},
	}
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		defer close(in.data)
		t, err := tail.TailFile(in.cfg.Path, conf)
		for err != nil {
			in.errs <- fmt.Errorf("error adding file %s: %w", in.cfg.Path, err)
			select {
			case <-in.stopChan:
				return
			case <-time.After(retryOpen):
			}
			t, err = tail.TailFile(in.cfg.Path, conf)
		}
		defer t.Cleanup()
		in.l.Infof("following %s", in.cfg.Path)
	fileLoop:
		for {
			select {
			case <-in.stopChan:
				t.Stop()
				break fileLoop
			case line, ok := <-t.Lines:
				if !ok {
					in.errs <- fmt.Errorf("file ended: %v", t.Err())
					break fileLoop
				}
				if line.Err != nil {
					in.errs <- fmt.Errorf("file %s: %w", in.cfg.Path, line.Err)
					continue
				}
				metrics.Get().ObserveChunk(in.cfg.Name, len(line.Text))
				select {
				case in.data <- []byte(line.Text):
				case <-in.stopChan:
					t.Stop()
					break fileLoop
				}
			}
		}
	}()
	return nil
}

// Stop stops the plugin.
func (in *FileInput) Stop() error {
	if in.pumped != nil {
		return in.pumped.Stop()
	}
	if in.stopped {
		return nil
	}
	in.stopped = true
	close(in.stopChan)
	in.wg.Wait()
	return nil
}

// Source returns the oncoming data channel for the Input Plugin.
func (in *FileInput) Source() <-chan []byte {
	if in.pumped != nil {
		return in.pumped.Source()
	}
	return in.data
}

// Errors returns the error channel for the Input Plugin.
func (in *FileInput) Errors() <-chan error {
	if in.pumped != nil {
		return in.pumped.Errors()
	}
	return in.errs
}

// FileOutputConfig contains configuration details when using the FileOutput Plugin.
type FileOutputConfig struct {
	Path    string `yaml:"path" json:"path"`
	Buffer  int    `yaml:"buffer" json:"buffer"`
	Newline bool   `yaml:"newline" json:"newline"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *FileOutputConfig) Configure(details map[string]interface{}) error {
	if err := configure(details, c); err != nil {
		return fmt.Errorf("invalid file output configuration: %w", err)
	}
	if c.Path == "" {
		return errors.New("missing or invalid path for file output")
	}
	if c.Buffer <= 0 {
		c.Buffer = defaultBuffer
	}
	return nil
}

// CreateOutput creates an Output based on the Config.
func (c *FileOutputConfig) CreateOutput() (plugin.Output, error) {
	if c.Path == "" {
		return nil, errors.New("no path defined for file output")
	}
	if c.Buffer <= 0 {
		c.Buffer = defaultBuffer
	}
	return &FileOutput{
		Path:     c.Path,
		Newline:  c.Newline,
		data:     make(chan []byte, c.Buffer),
		errs:     make(chan error, c.Buffer),
		stopChan: make(chan struct{}),
		l:        log.NewNoop(),
	}, nil
}

// FileOutput appends data to a file. Records are written as received unless
// Newline is set, in which case each record is terminated with a newline.
type FileOutput struct {
	Path     string
	Newline  bool
	data     chan []byte
	errs     chan error
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	l        log.Logger
}

// UseLogger assigns a logger for the Output.
func (out *FileOutput) UseLogger(l log.Logger) {
	if l == nil {
		l = log.NewNoop()
	}
	out.l = l
}

// Start starts the plugin.
func (out *FileOutput) Start() error {
	out.wg.Add(1)
	go func() {
		defer out.wg.Done()
		f, err := os.OpenFile(out.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		for err != nil {
			out.errs <- fmt.Errorf("error opening file %s for output: %w", out.Path, err)
			select {
			case <-out.stopChan:
				return
			case <-time.After(retryOpen):
			}
			f, err = os.OpenFile(out.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		}
		defer f.Close()
	fileLoop:
		for {
			select {
			case <-out.stopChan:
				break fileLoop
			case b := <-out.data:
				if err := writeRecord(f, b, out.Newline); err != nil {
					out.errs <- fmt.Errorf("file output %s: %w", out.Path, err)
				}
			}
		}
		// drain what was already handed over before the stop.
		for {
			select {
			case b := <-out.data:
				if err := writeRecord(f, b, out.Newline); err != nil {
					out.l.Errorf("file output %s: %v", out.Path, err)
				}
			default:
				out.l.Debugf("file output %s stopped", out.Path)
				return
			}
		}
	}()
	return nil
}

// Stop stops the plugin.
func (out *FileOutput) Stop() error {
	out.stopOnce.Do(func() {
		close(out.stopChan)
	})
	out.wg.Wait()
	return nil
}

// Destination returns the channel used for accept data to the intended Plugin destination.
func (out *FileOutput) Destination() chan<- []byte {
	return out.data
}

// Errors returns the error channel for the Output Plugin.
func (out *FileOutput) Errors() <-chan error {
	return out.errs
}
