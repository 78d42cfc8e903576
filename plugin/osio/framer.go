package osio

import (
	"bytes"
	"fmt"
)

// Split modes for pumped inputs.
const (
	SplitRaw   = `raw`
	SplitLines = `lines`

	defaultMaxLine = 64 * 1024
)

// PumpConfig holds the settings shared by pumped inputs.
type PumpConfig struct {
	Name    string `yaml:"name" json:"name"`
	Split   string `yaml:"split" json:"split"`
	MaxLine int    `yaml:"maxLine" json:"maxLine"`
	Buffer  int    `yaml:"buffer" json:"buffer"`
}

func (c *PumpConfig) defaults(name string) error {
	if c.Name == "" {
		c.Name = name
	}
	switch c.Split {
	case "":
		c.Split = SplitRaw
	case SplitRaw, SplitLines:
	default:
		return fmt.Errorf("invalid split %q for %s input, expected %s or %s", c.Split, name, SplitRaw, SplitLines)
	}
	if c.MaxLine <= 0 {
		c.MaxLine = defaultMaxLine
	}
	if c.Buffer <= 0 {
		c.Buffer = defaultBuffer
	}
	return nil
}

// lineFramer re-assembles newline terminated records from chunks split at arbitrary boundaries.
// Records longer than max are emitted in max sized pieces. It is not safe for concurrent use.
type lineFramer struct {
	partial []byte
	max     int
}

func newLineFramer(max int) *lineFramer {
	return &lineFramer{max: max}
}

func (f *lineFramer) frame(chunk []byte, emit func([]byte)) {
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			f.partial = append(f.partial, chunk...)
			for len(f.partial) > f.max {
				emit(f.partial[:f.max:f.max])
				f.partial = append([]byte(nil), f.partial[f.max:]...)
			}
			return
		}
		line := chunk[:i]
		if len(f.partial) > 0 {
			line = append(f.partial, line...)
			f.partial = nil
		}
		f.emitCapped(bytes.TrimSuffix(line, []byte{'\r'}), emit)
		chunk = chunk[i+1:]
	}
}

// emitCapped emits a complete record in pieces of at most max bytes.
func (f *lineFramer) emitCapped(line []byte, emit func([]byte)) {
	for len(line) > f.max {
		emit(line[:f.max:f.max])
		line = line[f.max:]
	}
	emit(line)
}

// flush emits any unterminated record.
func (f *lineFramer) flush(emit func([]byte)) {
	if len(f.partial) > 0 {
		emit(f.partial)
		f.partial = nil
	}
}
