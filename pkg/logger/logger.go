package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides leveled logging on top of zerolog plus the
// emoji progress lines shown to the user
type Logger struct {
	zl      zerolog.Logger
	out     io.Writer
	verbose bool
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(w io.Writer, level string, verbose bool) *Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    w != os.Stdout && w != os.Stderr,
	}
	zl := zerolog.New(console).
		Level(parseLogLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{
		zl:      zl,
		out:     w,
		verbose: verbose,
	}
}

// Debug logs debug information (only in debug mode)
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs informational messages (only in verbose mode)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.verbose {
		l.zl.Info().Msgf(format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// WithStage returns a logger tagging every entry with the stage name
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{
		zl:      l.zl.With().Str("stage", stage).Logger(),
		out:     l.out,
		verbose: l.verbose,
	}
}

// ProgressAlways logs critical progress information that should always be shown
// This is for important milestones that users should see regardless of verbose mode
func (l *Logger) ProgressAlways(emoji, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s\n", emoji, message)
}

// Progress logs detailed progress information (only in verbose mode)
// This is for step-by-step details that help with debugging and monitoring
func (l *Logger) Progress(emoji, format string, args ...interface{}) {
	if l.verbose {
		message := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.out, "%s %s\n", emoji, message)
	}
}

// Verbose reports whether verbose output is enabled
func (l *Logger) Verbose() bool {
	return l.verbose
}

// parseLogLevel converts string level to a zerolog level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests
func Discard() *Logger {
	return NewLoggerWithWriter(io.Discard, "error", false)
}
