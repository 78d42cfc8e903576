package log

import (
	"fmt"
	"io/ioutil"
	L "log"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger handles logging.
type Logger interface {
	Debugf(tmpl string, args ...interface{})
	Errorf(tmpl string, args ...interface{})
	Infof(tmpl string, args ...interface{})
	Warnf(tmpl string, args ...interface{})
}

// New returns a zap backed Logger writing console formatted entries to stderr at the given level.
func New(level string) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = `console`
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return FromZap(z), nil
}

// FromZap wraps an existing zap Logger.
func FromZap(z *zap.Logger) Logger {
	return z.Sugar()
}

// Named returns a Logger scoped with the given name where the underlying Logger supports it.
func Named(l Logger, name string) Logger {
	if s, ok := l.(*zap.SugaredLogger); ok {
		return s.Named(name)
	}
	return l
}

// NewNoop returns a NoopLogger.
func NewNoop() Logger {
	return &noopLogger{
		l: L.New(ioutil.Discard, "[PUMPER] ", 0),
	}
}

type noopLogger struct {
	l *L.Logger
}

func (n *noopLogger) Debugf(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

func (n *noopLogger) Errorf(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

func (n *noopLogger) Infof(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

func (n *noopLogger) Warnf(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

// KitLogger adapts a Logger for libraries expecting a go-kit logger.
// Entries are logged at debug level.
func KitLogger(l Logger) kitlog.Logger {
	return kitlog.LoggerFunc(func(keyvals ...interface{}) error {
		var sb strings.Builder
		for i := 0; i < len(keyvals); i += 2 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if i+1 < len(keyvals) {
				fmt.Fprintf(&sb, "%v=%v", keyvals[i], keyvals[i+1])
				continue
			}
			fmt.Fprintf(&sb, "%v", keyvals[i])
		}
		l.Debugf("%s", sb.String())
		return nil
	})
}
