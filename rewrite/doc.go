// Package rewrite implements a greedy pattern rewrite engine over warpsync IR.
//
// A PatternSet holds rewrite patterns. ApplyGreedily sweeps every statement
// of every defined function, offers it to the patterns in order of
// decreasing benefit and applies the first one that matches. Sweeps repeat
// until one of them applies nothing.
//
// # Usage
//
//	set := rewrite.NewPatternSet().Add(
//	    rewrite.NewOpPattern("drop-debug", 1,
//	        func(op *ir.Statement, call ir.StmtCall, rw *rewrite.Rewriter) (bool, error) {
//	            if call.Callee != "debug" {
//	                return false, nil
//	            }
//	            return true, rw.ReplaceOp(op, ir.StmtBlock{Block: ir.Block{}})
//	        }),
//	)
//	result, err := rewrite.ApplyGreedily(module, set, rewrite.WithMaxIterations(4))
//
// Rewrites already applied when the driver fails stay in the module.
package rewrite
