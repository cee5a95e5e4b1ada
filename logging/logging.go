package logging

import (
	"io"
	"log"

	"github.com/fatih/color"
)

type Level uint8

const (
	Debug Level = iota
	Info
	Warn
	Error
	// Silent discards all the messages.
	Silent
)

// Logger is the sink every engine component writes into. It is passed explicitly, the
// engine never consults a global logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type std struct {
	log   *log.Logger
	level Level
	tags  [Silent]string
}

// New returns a Logger writing into w every message of lvl or higher. Level tags are
// colored when w is a terminal.
func New(w io.Writer, lvl Level) Logger {
	return &std{
		log:   log.New(w, "", log.LstdFlags),
		level: lvl,
		tags: [Silent]string{
			Debug: color.New(color.FgHiBlack).Sprint("DEBUG: "),
			Info:  color.New(color.FgCyan).Sprint("INFO: "),
			Warn:  color.New(color.FgYellow).Sprint("WARNING: "),
			Error: color.New(color.FgRed, color.Bold).Sprint("ERROR: "),
		},
	}
}

func (s *std) Debugf(format string, args ...any) { s.printf(Debug, format, args) }
func (s *std) Infof(format string, args ...any)  { s.printf(Info, format, args) }
func (s *std) Warnf(format string, args ...any)  { s.printf(Warn, format, args) }
func (s *std) Errorf(format string, args ...any) { s.printf(Error, format, args) }

func (s *std) printf(lvl Level, format string, args []any) {
	if lvl < s.level {
		return
	}

	s.log.Printf(s.tags[lvl]+format, args...)
}

type nop struct{}

// Nop returns a Logger discarding everything.
func Nop() Logger {
	return nop{}
}

func (nop) Debugf(string, ...any) {}
func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}
