package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/vijay-prabhu/mailphone/internal/pipeline"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// Spinner frames for animated progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Terminal provides terminal-aware output utilities
type Terminal struct {
	Out          io.Writer
	IsTerminal   bool
	UseColor     bool
	spinnerIndex int
}

// NewTerminal creates a Terminal on stdout
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	return &Terminal{
		Out:        os.Stdout,
		IsTerminal: isTerminal,
		UseColor:   isTerminal, // Only use color in terminal
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Fprint(t.Out, "\r\033[K")
	}
}

// Spinner returns the next spinner frame
func (t *Terminal) Spinner() string {
	if !t.IsTerminal {
		return ""
	}
	frame := spinnerFrames[t.spinnerIndex]
	t.spinnerIndex = (t.spinnerIndex + 1) % len(spinnerFrames)
	return frame
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// FormatETA formats a duration as a human-readable ETA string
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// PhaseColor returns the color for a run phase
func PhaseColor(phase pipeline.ProgressPhase) string {
	switch phase {
	case pipeline.PhaseAuthenticating:
		return ColorYellow
	case pipeline.PhaseListing:
		return ColorCyan
	case pipeline.PhaseExtracting:
		return ColorBlue
	case pipeline.PhaseWriting:
		return ColorGreen
	default:
		return ColorWhite
	}
}

// ProgressPrinter returns a callback that renders run progress. On a
// terminal the line is redrawn in place; otherwise a line is printed on
// phase changes and every 10 extracted messages.
func (t *Terminal) ProgressPrinter() pipeline.ProgressCallback {
	var lastPhase pipeline.ProgressPhase

	return func(p pipeline.Progress) {
		var msg string
		switch p.Phase {
		case pipeline.PhaseAuthenticating:
			msg = "Authenticating with Gmail..."
		case pipeline.PhaseListing:
			if p.Total > 0 {
				msg = fmt.Sprintf("Listing messages: %d found", p.Total)
			} else {
				msg = strings.TrimSpace(t.Spinner() + " Listing messages...")
			}
		case pipeline.PhaseExtracting:
			eta := ""
			if d := p.ETA(); d > 0 {
				eta = fmt.Sprintf(" (ETA: %s)", FormatETA(d))
			}
			msg = fmt.Sprintf("Extracting: %d/%d messages (%d%%)%s", p.Current, p.Total, p.Percentage(), eta)
		case pipeline.PhaseWriting:
			msg = "Writing output..."
		}

		if t.IsTerminal {
			t.ClearLine()
			fmt.Fprint(t.Out, t.Color(PhaseColor(p.Phase), msg))
			// the summary follows the last phase on its own line
			if p.Phase == pipeline.PhaseWriting {
				fmt.Fprintln(t.Out)
			}
		} else {
			shouldPrint := p.Phase != lastPhase
			if p.Phase == pipeline.PhaseExtracting {
				shouldPrint = shouldPrint || p.Current%10 == 0 || p.Current == p.Total
			}
			if shouldPrint {
				fmt.Fprintln(t.Out, msg)
			}
		}

		lastPhase = p.Phase
	}
}
