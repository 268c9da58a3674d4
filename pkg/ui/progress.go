// Package ui provides the terminal output of the picaxe CLI.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/types"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// StageBar shows pipeline progress as a bar advancing once per stage
type StageBar struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// Ensure StageBar implements ProgressObserver interface
var _ interfaces.ProgressObserver = (*StageBar)(nil)

// NewStageBar creates a progress bar over total stages written to w
func NewStageBar(w io.Writer, total int) *StageBar {
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &StageBar{bar: bar, w: w}
}

// StageStarted shows the running stage in the bar description
func (s *StageBar) StageStarted(index, total int, name types.StageName) {
	s.bar.Describe(fmt.Sprintf("[%d/%d] %s", index, total, name))
}

// StageFinished advances the bar, or leaves it where it stopped on failure
func (s *StageBar) StageFinished(index, total int, name types.StageName, elapsed time.Duration, err error) {
	if err != nil {
		fmt.Fprintln(s.w)
		return
	}
	_ = s.bar.Add(1)
}

// StageLog reports every stage as a log line, for verbose runs where the
// stage output would tear a progress bar apart
type StageLog struct {
	logger *logger.Logger
}

// Ensure StageLog implements ProgressObserver interface
var _ interfaces.ProgressObserver = (*StageLog)(nil)

// NewStageLog creates a log based progress observer
func NewStageLog(log *logger.Logger) *StageLog {
	return &StageLog{logger: log}
}

// StageStarted logs the stage start
func (s *StageLog) StageStarted(index, total int, name types.StageName) {
	s.logger.ProgressAlways("🔄", "[%d/%d] Running %s", index, total, name)
}

// StageFinished logs the stage outcome
func (s *StageLog) StageFinished(index, total int, name types.StageName, elapsed time.Duration, err error) {
	if err != nil {
		s.logger.ProgressAlways("❌", "[%d/%d] %s failed after %s", index, total, name, elapsed.Round(time.Millisecond))
		return
	}
	s.logger.ProgressAlways("✅", "[%d/%d] %s finished in %s", index, total, name, elapsed.Round(time.Millisecond))
}

// Success prints a success line to w
func Success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error line to w
func Error(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Message prints a plain line to w
func Message(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
	fmt.Fprintln(w)
}
