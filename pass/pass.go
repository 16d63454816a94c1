package pass

import (
	"log/slog"

	"github.com/gogpu/warpsync/ir"
)

// Pass transforms a module in place.
type Pass interface {
	Name() string
	Run(module *ir.Module) (Stats, error)
}

// Stats describes what a pass did.
type Stats struct {
	// Rewrites is the number of rewrites applied.
	Rewrites int

	// Iterations is the number of rewrite sweeps.
	Iterations int

	// Inserted is the number of functions added to the module.
	Inserted int
}

// Changed reports whether the pass modified the module.
func (s Stats) Changed() bool {
	return s.Rewrites > 0 || s.Inserted > 0
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Rewrites:   s.Rewrites + o.Rewrites,
		Iterations: s.Iterations + o.Iterations,
		Inserted:   s.Inserted + o.Inserted,
	}
}

// Options configure passes created from the registry.
// Zero values select the pass defaults.
type Options struct {
	MaxIterations int
	MaxRewrites   int
	Logger        *slog.Logger
}

// State is the lifecycle state of one pass run.
type State uint8

const (
	StateNotStarted State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
