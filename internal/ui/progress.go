package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner wraps the progressbar library's spinner for long-running
// conversion phases where no byte count is available
type Spinner struct {
	bar       *progressbar.ProgressBar
	startTime time.Time
}

// NewSpinner creates an indeterminate spinner for a conversion phase
func NewSpinner(description string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
	)

	return &Spinner{
		bar:       bar,
		startTime: time.Now(),
	}
}

// Tick advances the spinner
func (s *Spinner) Tick() {
	s.bar.Add(1)
}

// Describe updates the spinner's description
func (s *Spinner) Describe(description string) {
	s.bar.Describe(description)
}

// Finish completes the spinner and prints the elapsed time
func (s *Spinner) Finish() {
	s.bar.Finish()
	fmt.Printf("  done in %s\n", FormatDuration(time.Since(s.startTime)))
}

// PhaseProgress tracks the named phases of a conversion (export,
// tokenizer conversion, packaging) as a single bar
type PhaseProgress struct {
	bar    *progressbar.ProgressBar
	phases []string
	index  int
}

// NewPhaseProgress creates a progress bar over a fixed list of phases
func NewPhaseProgress(phases []string) *PhaseProgress {
	bar := progressbar.NewOptions(len(phases),
		progressbar.OptionSetDescription(phases[0]),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	return &PhaseProgress{
		bar:    bar,
		phases: phases,
	}
}

// NextPhase marks the current phase complete and moves to the next
func (p *PhaseProgress) NextPhase() {
	p.bar.Add(1)
	p.index++
	if p.index < len(p.phases) {
		p.bar.Describe(p.phases[p.index])
	}
}

// Finish completes the remaining phases
func (p *PhaseProgress) Finish() {
	p.bar.Finish()
}

// FormatBytes formats bytes into human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration into human readable format
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// TruncateString truncates a string with ellipsis
func TruncateString(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	if maxLen <= 3 {
		return str[:maxLen]
	}
	return str[:maxLen-3] + "..."
}

// PadRight pads a string to the right
func PadRight(str string, length int) string {
	if len(str) >= length {
		return str
	}
	return str + strings.Repeat(" ", length-len(str))
}
