package console

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner shows progress while many files are validated. It renders nothing
// when stdout is not a terminal, so CI logs stay clean.
type Spinner struct {
	inner   *spinner.Spinner
	enabled bool
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := &Spinner{enabled: isatty.IsTerminal(os.Stdout.Fd())}
	if s.enabled {
		s.inner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.inner.Suffix = " " + message
		_ = s.inner.Color("yellow")
	}
	return s
}

// Start begins the animation.
func (s *Spinner) Start() {
	if s.enabled && s.inner != nil {
		s.inner.Start()
	}
}

// Stop halts the animation.
func (s *Spinner) Stop() {
	if s.enabled && s.inner != nil {
		s.inner.Stop()
	}
}

// UpdateMessage replaces the message shown next to the spinner.
func (s *Spinner) UpdateMessage(message string) {
	if s.enabled && s.inner != nil {
		s.inner.Suffix = " " + message
	}
}

// IsEnabled reports whether the spinner will render.
func (s *Spinner) IsEnabled() bool {
	return s.enabled
}
