package rewrite

import (
	"slices"

	"github.com/gogpu/warpsync/ir"
)

// Pattern rewrites one statement at a time.
type Pattern interface {
	// Name identifies the pattern in logs and errors.
	Name() string

	// Benefit orders patterns; higher is tried first.
	Benefit() int

	// Match is a cheap filter on the root statement kind.
	Match(kind ir.StatementKind) bool

	// MatchAndRewrite inspects op and, if it applies, rewrites it through rw.
	// Returning false means the pattern declined and must leave the IR untouched.
	MatchAndRewrite(op *ir.Statement, rw *Rewriter) (bool, error)
}

// RewriteFunc is the body of an OpPattern.
type RewriteFunc[K ir.StatementKind] func(op *ir.Statement, kind K, rw *Rewriter) (bool, error)

// OpPattern is a Pattern rooted on a single statement kind K.
type OpPattern[K ir.StatementKind] struct {
	name    string
	benefit int
	rewrite RewriteFunc[K]
}

// NewOpPattern creates a pattern that is offered only statements of kind K.
func NewOpPattern[K ir.StatementKind](name string, benefit int, fn RewriteFunc[K]) *OpPattern[K] {
	return &OpPattern[K]{name: name, benefit: benefit, rewrite: fn}
}

func (p *OpPattern[K]) Name() string { return p.name }
func (p *OpPattern[K]) Benefit() int { return p.benefit }

func (p *OpPattern[K]) Match(kind ir.StatementKind) bool {
	_, ok := kind.(K)
	return ok
}

func (p *OpPattern[K]) MatchAndRewrite(op *ir.Statement, rw *Rewriter) (bool, error) {
	kind, ok := op.Kind.(K)
	if !ok {
		return false, nil
	}
	return p.rewrite(op, kind, rw)
}

// PatternSet is an ordered collection of patterns.
type PatternSet struct {
	patterns []Pattern
}

// NewPatternSet creates an empty pattern set.
func NewPatternSet() *PatternSet {
	return &PatternSet{}
}

// Add appends patterns in registration order.
func (s *PatternSet) Add(patterns ...Pattern) *PatternSet {
	s.patterns = append(s.patterns, patterns...)
	return s
}

// Len returns the number of patterns.
func (s *PatternSet) Len() int {
	return len(s.patterns)
}

// Patterns returns the patterns sorted by decreasing benefit.
// Patterns of equal benefit keep registration order.
func (s *PatternSet) Patterns() []Pattern {
	out := slices.Clone(s.patterns)
	slices.SortStableFunc(out, func(a, b Pattern) int {
		return b.Benefit() - a.Benefit()
	})
	return out
}
