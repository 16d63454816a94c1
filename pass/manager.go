package pass

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gogpu/warpsync/ir"
)

// Result is the outcome of one pass in a pipeline run.
type Result struct {
	Name    string
	State   State
	Stats   Stats
	Elapsed time.Duration
	Err     error
}

// Report collects the results of a pipeline run, one per pass in order.
// Passes after a failure stay StateNotStarted.
type Report struct {
	Passes []Result
}

// Failed reports whether any pass failed.
func (r *Report) Failed() bool {
	for _, p := range r.Passes {
		if p.State == StateFailed {
			return true
		}
	}
	return false
}

// Total sums the stats of all passes.
func (r *Report) Total() Stats {
	var total Stats
	for _, p := range r.Passes {
		total = total.add(p.Stats)
	}
	return total
}

// Manager runs passes in order.
type Manager struct {
	passes []Pass
	verify bool
	logger *slog.Logger
}

// NewManager creates an empty pass manager. A nil logger discards.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{logger: logger}
}

// Add appends passes to the pipeline.
func (m *Manager) Add(passes ...Pass) *Manager {
	m.passes = append(m.passes, passes...)
	return m
}

// EnableVerifier turns module verification before the pipeline and after
// each pass on or off.
func (m *Manager) EnableVerifier(enabled bool) *Manager {
	m.verify = enabled
	return m
}

// Passes returns the names of the queued passes.
func (m *Manager) Passes() []string {
	names := make([]string, len(m.passes))
	for i, p := range m.passes {
		names[i] = p.Name()
	}
	return names
}

// Run executes the pipeline on module and stops at the first failure.
// Changes made before a failure are kept.
func (m *Manager) Run(module *ir.Module) (*Report, error) {
	report := &Report{Passes: make([]Result, len(m.passes))}
	for i, p := range m.passes {
		report.Passes[i] = Result{Name: p.Name(), State: StateNotStarted}
	}

	if m.verify {
		if err := Verify(module); err != nil {
			return report, &Error{Kind: ErrVerifyFailed, Err: err}
		}
	}

	for i, p := range m.passes {
		res := &report.Passes[i]
		res.State = StateRunning
		m.logger.Debug("running pass", "pass", res.Name)

		start := time.Now()
		stats, err := p.Run(module)
		res.Elapsed = time.Since(start)
		res.Stats = stats

		if err != nil {
			res.State = StateFailed
			res.Err = err
			m.logger.Error("pass failed", "pass", res.Name, "error", err)
			return report, &Error{Pass: res.Name, Kind: ErrPassFailed, Err: err}
		}

		if m.verify {
			if err := Verify(module); err != nil {
				res.State = StateFailed
				res.Err = err
				m.logger.Error("verification failed", "pass", res.Name, "error", err)
				return report, &Error{Pass: res.Name, Kind: ErrVerifyFailed, Err: err}
			}
		}

		res.State = StateSucceeded
		m.logger.Info("pass finished",
			"pass", res.Name,
			"rewrites", stats.Rewrites,
			"iterations", stats.Iterations,
			"elapsed", res.Elapsed,
		)
	}
	return report, nil
}

// Verify validates module and joins all validation errors.
func Verify(module *ir.Module) error {
	errs, err := ir.Validate(module)
	if err != nil {
		return err
	}
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return fmt.Errorf("module verification failed: %w", errors.Join(joined...))
}
