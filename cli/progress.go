package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/nmstate/testbox/core"
)

const spinnerInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// isTerminalWriter reports whether w is a terminal.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ProgressIndicator shows a spinner on a terminal and plain log lines
// everywhere else.
type ProgressIndicator struct {
	logger     core.Logger
	writer     io.Writer
	message    string
	done       chan struct{}
	mu         sync.Mutex
	isTerminal bool
	ticker     *time.Ticker
	started    bool
}

// NewProgressIndicator creates a progress indicator writing to w.
func NewProgressIndicator(logger core.Logger, w io.Writer, message string) *ProgressIndicator {
	return &ProgressIndicator{
		logger:     logger,
		writer:     w,
		message:    message,
		done:       make(chan struct{}),
		isTerminal: isTerminalWriter(w),
	}
}

// Start begins displaying the progress indicator
func (p *ProgressIndicator) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	if !p.isTerminal {
		p.logger.Noticef("%s...", p.message)
		return
	}

	p.ticker = time.NewTicker(spinnerInterval)
	go p.animate(p.ticker.C, p.done)
}

// Stop ends the indicator and reports the result.
func (p *ProgressIndicator) Stop(success bool, resultMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.started = false
	close(p.done)
	p.done = make(chan struct{})

	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}

	if !p.isTerminal {
		if success {
			p.logger.Noticef("✅ %s", resultMsg)
		} else {
			p.logger.Errorf("❌ %s", resultMsg)
		}
		return
	}

	p.clearLine()
	if success {
		fmt.Fprintf(p.writer, "✅ %s\n", resultMsg)
	} else {
		fmt.Fprintf(p.writer, "❌ %s\n", resultMsg)
	}
}

// Update changes the progress message
func (p *ProgressIndicator) Update(newMessage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isTerminal {
		p.logger.Noticef("%s...", newMessage)
	} else {
		p.clearLine()
	}
	p.message = newMessage
}

func (p *ProgressIndicator) clearLine() {
	fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", len(p.message)+10))
}

func (p *ProgressIndicator) animate(tick <-chan time.Time, done <-chan struct{}) {
	i := 0
	for {
		select {
		case <-done:
			return
		case <-tick:
			p.mu.Lock()
			fmt.Fprintf(p.writer, "\r%s %s", spinnerFrames[i], p.message)
			p.mu.Unlock()
			i = (i + 1) % len(spinnerFrames)
		}
	}
}

// ProgressReporter reports the progress of a fixed number of steps
type ProgressReporter struct {
	logger      core.Logger
	writer      io.Writer
	totalSteps  int
	currentStep int
	mu          sync.Mutex
	isTerminal  bool
}

// NewProgressReporter creates a new multi-step progress reporter
func NewProgressReporter(logger core.Logger, w io.Writer, totalSteps int) *ProgressReporter {
	return &ProgressReporter{
		logger:     logger,
		writer:     w,
		totalSteps: totalSteps,
		isTerminal: isTerminalWriter(w),
	}
}

// Step reports progress for a single step
func (pr *ProgressReporter) Step(stepNum int, message string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.currentStep = stepNum
	if pr.totalSteps == 0 {
		return
	}

	if !pr.isTerminal {
		pr.logger.Noticef("[%d/%d] %s", stepNum, pr.totalSteps, message)
		return
	}

	progress := float64(stepNum) / float64(pr.totalSteps) * 100
	fmt.Fprintf(pr.writer, "\r[%d/%d] %s %s", stepNum, pr.totalSteps, renderProgressBar(progress), message)
	if stepNum == pr.totalSteps {
		fmt.Fprintln(pr.writer)
	}
}

// Complete marks all steps as complete
func (pr *ProgressReporter) Complete(message string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.isTerminal && pr.currentStep != pr.totalSteps {
		fmt.Fprintln(pr.writer)
	}
	pr.logger.Noticef("✅ %s", message)
}

func renderProgressBar(percent float64) string {
	const barWidth = 20
	filled := min(int(percent/100.0*barWidth), barWidth)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %.0f%%", bar, percent)
}
