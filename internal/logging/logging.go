package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is the verbosity of a Logger. The zero value logs errors only.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// LevelIDs maps every level to its accepted command-line spellings.
var LevelIDs = map[Level][]string{
	LevelError: {"error"},
	LevelWarn:  {"warn", "warning"},
	LevelInfo:  {"info"},
	LevelDebug: {"debug"},
}

func (l Level) String() string {
	if ids, ok := LevelIDs[l]; ok {
		return ids[0]
	}
	return "unknown"
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

type Config struct {
	Level Level
	// JSON switches from the human readable console output to one JSON
	// object per line.
	JSON   bool
	Output io.Writer
}

type Logger struct {
	zl zerolog.Logger
}

func New(c Config) *Logger {
	w := c.Output
	if w == nil {
		w = os.Stderr
	}
	if !c.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return &Logger{zl: zerolog.New(w).Level(c.Level.zerolog()).With().Timestamp().Logger()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger annotating every event with key=value.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Zerolog exposes the underlying logger for adapters.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}
