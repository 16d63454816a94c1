package rewrite

import (
	"github.com/oleiade/lane"

	"github.com/gogpu/warpsync/ir"
)

// Result summarizes a greedy rewrite run.
type Result struct {
	// Rewrites is the number of patterns applied.
	Rewrites int

	// Iterations is the number of sweeps, including the final one that
	// applied nothing.
	Iterations int
}

// Changed reports whether any rewrite was applied.
func (r Result) Changed() bool {
	return r.Rewrites > 0
}

type workItem struct {
	fn *ir.Function
	op *ir.Statement
}

// ApplyGreedily applies set to module until a fixpoint is reached.
//
// Each sweep queues every statement of every defined function in program
// order. Statements created during a sweep are seen by the next one.
// On failure the returned Result counts the rewrites that stay applied.
func ApplyGreedily(module *ir.Module, set *PatternSet, options ...Option) (Result, error) {
	cfg := newConfig(options)
	patterns := set.Patterns()
	rw := NewRewriter(module, cfg.logger)

	var res Result
	for {
		if !cfg.limits.CanIterate(res.Iterations) {
			return res, newError(ErrNotConverged, "no fixpoint after %d iterations", res.Iterations)
		}
		res.Iterations++

		queue := lane.NewQueue()
		// Functions inserted during this sweep are visited by the next.
		for _, fn := range append([]*ir.Function(nil), module.Functions...) {
			for _, op := range ir.CollectOps(fn) {
				queue.Enqueue(workItem{fn: fn, op: op})
			}
		}

		applied := 0
		for !queue.Empty() {
			item := queue.Dequeue().(workItem)
			rw.SetFunction(item.fn)

			ok, err := applyFirst(patterns, item, rw, res.Iterations, cfg)
			if err != nil {
				return res, err
			}
			if !ok {
				continue
			}

			applied++
			res.Rewrites++
			if !cfg.limits.CanRewrite(res.Rewrites) {
				return res, newError(ErrRewriteLimit, "more than %d rewrites", cfg.limits.MaxRewrites)
			}
		}
		rw.SetFunction(nil)

		cfg.logger.Debug("rewrite sweep done", "iteration", res.Iterations, "applied", applied)
		if applied == 0 {
			return res, nil
		}
	}
}

// applyFirst offers the item to the patterns in order and stops at the
// first one that applies.
func applyFirst(patterns []Pattern, item workItem, rw *Rewriter, iteration int, cfg config) (bool, error) {
	for _, p := range patterns {
		if !p.Match(item.op.Kind) {
			continue
		}
		ok, err := p.MatchAndRewrite(item.op, rw)
		if err != nil {
			return false, &Error{Kind: ErrRewriteFailed, Pattern: p.Name(), Function: item.fn.Name, Err: err}
		}
		if ok {
			cfg.logger.Debug("applied pattern",
				"pattern", p.Name(),
				"function", item.fn.Name,
				"iteration", iteration,
			)
			return true, nil
		}
	}
	return false, nil
}
