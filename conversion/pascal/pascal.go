package pascal

import (
	"fmt"
	"strings"

	"github.com/gogpu/warpsync/ir"
	"github.com/gogpu/warpsync/pass"
	"github.com/gogpu/warpsync/rewrite"
)

// Reserved identifiers.
const (
	// PassName is the registry name of the conversion.
	PassName = "convert-syncwarp-to-pascal"

	// BarrierSymbol is the block-level barrier (__syncthreads).
	BarrierSymbol = "llvm.nvvm.barrier0"

	// SyncwarpMarker and UnderscoreSyncwarpMarker select callees by substring.
	SyncwarpMarker           = "syncwarp"
	UnderscoreSyncwarpMarker = "__syncwarp"

	// WarpBarrierIntrinsic is matched exactly.
	WarpBarrierIntrinsic = "llvm.nvvm.bar.warp.sync"
)

// IsSyncwarpCallee reports whether a direct callee is warp synchronization.
// Any name containing the marker matches, wrappers included.
func IsSyncwarpCallee(name string) bool {
	return strings.Contains(name, SyncwarpMarker) || strings.Contains(name, UnderscoreSyncwarpMarker)
}

// NewBarrierDeclaration returns a fresh `declare void @llvm.nvvm.barrier0()`.
func NewBarrierDeclaration() *ir.Function {
	return &ir.Function{Name: BarrierSymbol, Linkage: ir.LinkageExternal}
}

// GetOrCreateBarrier returns the barrier declaration of the module being
// rewritten, inserting it at the start of the module on first use.
// An existing symbol is reused as long as it takes no arguments and
// returns nothing.
func GetOrCreateBarrier(rw *rewrite.Rewriter) (*ir.Function, error) {
	fn, _, err := rw.GetOrInsertFunction(BarrierSymbol, NewBarrierDeclaration)
	if err != nil {
		return nil, err
	}
	if len(fn.Arguments) != 0 || fn.Result != nil {
		return nil, fmt.Errorf("existing @%s has an incompatible signature", BarrierSymbol)
	}
	return fn, nil
}

// SyncwarpCallPattern rewrites direct calls to syncwarp functions.
// Indirect calls have no callee name and are declined.
func SyncwarpCallPattern() rewrite.Pattern {
	return rewrite.NewOpPattern[ir.StmtCall]("syncwarp-call", 1,
		func(op *ir.Statement, call ir.StmtCall, rw *rewrite.Rewriter) (bool, error) {
			if call.Indirect != nil || call.Callee == "" || !IsSyncwarpCallee(call.Callee) {
				return false, nil
			}
			return replaceWithBarrier(op, rw)
		})
}

// IntrinsicSyncwarpPattern rewrites the llvm.nvvm.bar.warp.sync intrinsic.
// The replacement is a plain call, not an intrinsic call.
func IntrinsicSyncwarpPattern() rewrite.Pattern {
	return rewrite.NewOpPattern[ir.StmtCallIntrinsic]("syncwarp-intrinsic", 1,
		func(op *ir.Statement, call ir.StmtCallIntrinsic, rw *rewrite.Rewriter) (bool, error) {
			if call.Intrinsic != WarpBarrierIntrinsic {
				return false, nil
			}
			return replaceWithBarrier(op, rw)
		})
}

func replaceWithBarrier(op *ir.Statement, rw *rewrite.Rewriter) (bool, error) {
	barrier, err := GetOrCreateBarrier(rw)
	if err != nil {
		return false, err
	}
	if err := rw.ReplaceOpWithCall(op, barrier, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Populate adds the direct call pattern and then the intrinsic pattern.
func Populate(set *rewrite.PatternSet) *rewrite.PatternSet {
	return set.Add(SyncwarpCallPattern(), IntrinsicSyncwarpPattern())
}

// Pass is the convert-syncwarp-to-pascal pass. It keeps no state between runs.
type Pass struct {
	options []rewrite.Option
}

var _ pass.Pass = (*Pass)(nil)

// NewPass creates the conversion pass. Options tune the rewrite driver.
func NewPass(options ...rewrite.Option) *Pass {
	return &Pass{options: options}
}

// Name returns PassName.
func (p *Pass) Name() string {
	return PassName
}

// Run converts module in place. When the rewrite driver fails the rewrites
// it already applied are kept.
func (p *Pass) Run(module *ir.Module) (pass.Stats, error) {
	if module == nil {
		return pass.Stats{}, fmt.Errorf("module is nil")
	}

	set := Populate(rewrite.NewPatternSet())
	before := len(module.Functions)

	res, err := rewrite.ApplyGreedily(module, set, p.options...)
	stats := pass.Stats{
		Rewrites:   res.Rewrites,
		Iterations: res.Iterations,
		Inserted:   len(module.Functions) - before,
	}
	return stats, err
}

// rewriteOptions maps registry options onto driver options.
func rewriteOptions(o pass.Options) []rewrite.Option {
	var options []rewrite.Option
	if o.MaxIterations > 0 {
		options = append(options, rewrite.WithMaxIterations(o.MaxIterations))
	}
	if o.MaxRewrites > 0 {
		options = append(options, rewrite.WithMaxRewrites(o.MaxRewrites))
	}
	if o.Logger != nil {
		options = append(options, rewrite.WithLogger(o.Logger))
	}
	return options
}

func init() {
	pass.Register(PassName,
		"Replace warp-level syncwarp with the block-level barrier0 for Pascal GPUs",
		func(o pass.Options) pass.Pass { return NewPass(rewriteOptions(o)...) })
}
