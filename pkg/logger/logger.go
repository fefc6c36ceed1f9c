package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options controls how the process logger is built.
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error
	JSON   bool
	Output io.Writer
}

// New builds the root logger. Components receive named children of it.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	name := opts.Name
	if name == "" {
		name = "slimelist"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      ParseLevel(opts.Level),
		Output:     out,
		JSONFormat: opts.JSON,
	})
}

// ParseLevel maps a config string to an hclog level, defaulting to info.
func ParseLevel(s string) hclog.Level {
	lvl := hclog.LevelFromString(strings.TrimSpace(s))
	if lvl == hclog.NoLevel {
		return hclog.Info
	}
	return lvl
}

// OrNull returns l, or a discarding logger when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
