package cli

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmstate/testbox/test"
)

func TestProgressIndicator_NonTerminal(t *testing.T) {
	logger := test.NewTestLogger()
	var buf bytes.Buffer
	progress := NewProgressIndicator(logger, &buf, "Removing leftovers")

	progress.Start()
	progress.Start()
	progress.Update("Removing networks")
	progress.Stop(true, "Removed 3 resource(s)")
	progress.Stop(true, "ignored")

	assert.Empty(t, buf.String())
	assert.True(t, logger.HasMessage("Removing leftovers..."))
	assert.True(t, logger.HasMessage("Removing networks..."))
	assert.True(t, logger.HasMessage("✅ Removed 3 resource(s)"))
	assert.False(t, logger.HasMessage("ignored"))
}

func TestProgressIndicator_Failure(t *testing.T) {
	logger := test.NewTestLogger()
	progress := NewProgressIndicator(logger, &bytes.Buffer{}, "Pulling")

	progress.Start()
	progress.Stop(false, "pull failed")
	assert.True(t, logger.HasError("❌ pull failed"))
}

func TestProgressIndicator_Terminal(t *testing.T) {
	logger := test.NewTestLogger()
	var buf bytes.Buffer
	progress := NewProgressIndicator(logger, &buf, "Working")
	progress.isTerminal = true

	progress.Start()
	progress.Stop(true, "done")

	// The spinner may or may not have drawn a frame; the result line always follows
	assert.Contains(t, buf.String(), "✅ done\n")
	assert.Equal(t, 0, logger.ErrorCount())
}

func TestProgressIndicator_Restart(t *testing.T) {
	logger := test.NewTestLogger()
	progress := NewProgressIndicator(logger, &bytes.Buffer{}, "first")

	progress.Start()
	progress.Stop(true, "one")
	progress.Start()
	progress.Stop(true, "two")

	assert.True(t, logger.HasMessage("✅ two"))
}

func TestProgressIndicator_Concurrency(t *testing.T) {
	progress := NewProgressIndicator(test.NewTestLogger(), &bytes.Buffer{}, "Concurrent test")
	progress.Start()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			progress.Update(fmt.Sprintf("Update %d", n))
		}(i)
	}
	wg.Wait()

	progress.Stop(true, "Concurrent test complete")
}

func TestProgressReporter_NonTerminal(t *testing.T) {
	logger := test.NewTestLogger()
	reporter := NewProgressReporter(logger, &bytes.Buffer{}, 3)

	reporter.Step(1, "Checking configuration")
	reporter.Step(2, "Checking Docker")
	reporter.Step(3, "Checking leftovers")
	reporter.Complete("Health check complete")

	assert.Equal(t, 3, reporter.currentStep)
	assert.True(t, logger.HasMessage("[2/3] Checking Docker"))
	assert.True(t, logger.HasMessage("✅ Health check complete"))
}

func TestProgressReporter_Terminal(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(test.NewTestLogger(), &buf, 2)
	reporter.isTerminal = true

	reporter.Step(1, "one")
	reporter.Step(2, "two")

	assert.Contains(t, buf.String(), "[1/2] ██████████░░░░░░░░░░ 50% one")
	assert.Contains(t, buf.String(), "[2/2] ████████████████████ 100% two\n")
}

func TestProgressReporter_ZeroSteps(t *testing.T) {
	logger := test.NewTestLogger()
	reporter := NewProgressReporter(logger, &bytes.Buffer{}, 0)

	reporter.Step(1, "ignored")
	reporter.Complete("No steps")
	assert.False(t, logger.HasMessage("ignored"))
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "░░░░░░░░░░░░░░░░░░░░ 0%"},
		{50, "██████████░░░░░░░░░░ 50%"},
		{100, "████████████████████ 100%"},
		{150, "████████████████████ 150%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, renderProgressBar(tt.percent))
	}
}
