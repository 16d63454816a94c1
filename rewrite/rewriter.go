package rewrite

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/warpsync/ir"
)

// Rewriter is the only way patterns should mutate the module.
// It keeps the symbol table current and checks replacements.
type Rewriter struct {
	module  *ir.Module
	symbols *ir.SymbolTable
	logger  *slog.Logger

	// Function context (set for each statement offered to patterns)
	fn *ir.Function
}

// NewRewriter creates a rewriter over module.
func NewRewriter(module *ir.Module, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Rewriter{
		module:  module,
		symbols: ir.NewSymbolTable(module),
		logger:  logger,
	}
}

// Module returns the module being rewritten.
func (rw *Rewriter) Module() *ir.Module {
	return rw.module
}

// Function returns the function that owns the statement being rewritten.
func (rw *Rewriter) Function() *ir.Function {
	return rw.fn
}

// SetFunction sets the function that owns subsequent replacements.
func (rw *Rewriter) SetFunction(fn *ir.Function) {
	rw.fn = fn
}

// LookupFunction returns the function named name, or nil.
func (rw *Rewriter) LookupFunction(name string) *ir.Function {
	return rw.symbols.Lookup(name)
}

// InsertFunctionAtStart inserts fn as the first function of the module.
func (rw *Rewriter) InsertFunctionAtStart(fn *ir.Function) error {
	if err := rw.symbols.InsertAtStart(fn); err != nil {
		return &Error{Kind: ErrInvalidRewrite, Function: fn.Name, Err: err}
	}
	rw.logger.Debug("inserted function", "name", fn.Name, "declaration", fn.IsDeclaration())
	return nil
}

// GetOrInsertFunction returns the function named name, creating it at the
// start of the module when missing. The boolean reports whether it was created.
func (rw *Rewriter) GetOrInsertFunction(name string, create func() *ir.Function) (*ir.Function, bool, error) {
	fn, created, err := rw.symbols.GetOrCreate(name, create)
	if err != nil {
		return nil, false, &Error{Kind: ErrInvalidRewrite, Function: name, Err: err}
	}
	if created {
		rw.logger.Debug("inserted function", "name", name, "declaration", fn.IsDeclaration())
	}
	return fn, created, nil
}

// ReplaceOp replaces op in place with a statement of the given kind.
// Uses of the old call result move to the new one. Dropping a result that
// is still used is an error and leaves op untouched.
func (rw *Rewriter) ReplaceOp(op *ir.Statement, kind ir.StatementKind) error {
	if op == nil || kind == nil {
		return newError(ErrInvalidRewrite, "replacement of a nil statement")
	}
	if rw.fn == nil {
		return newError(ErrInvalidRewrite, "replacement outside of a function")
	}

	oldResult := ir.StatementResult(op.Kind)
	newResult := ir.StatementResult(kind)
	redirect := oldResult != nil && (newResult == nil || *newResult != *oldResult)
	if redirect && newResult == nil {
		if uses := ir.ExpressionUses(rw.fn, *oldResult); uses > 0 {
			return &Error{
				Kind:     ErrInvalidRewrite,
				Function: rw.fn.Name,
				Message:  fmt.Sprintf("replacement drops result %%%d which has %d uses", *oldResult, uses),
			}
		}
		redirect = false
	}

	op.Kind = kind
	if redirect {
		ir.ReplaceUses(rw.fn, *oldResult, *newResult)
	}
	return nil
}

// ReplaceOpWithCall replaces op with a direct call to callee.
// A callee with a result gets a fresh call result that takes over the uses
// of op's result.
func (rw *Rewriter) ReplaceOpWithCall(op *ir.Statement, callee *ir.Function, args []ir.ExpressionHandle) error {
	if callee == nil {
		return newError(ErrInvalidRewrite, "call to a nil function")
	}
	if rw.LookupFunction(callee.Name) != callee {
		return &Error{Kind: ErrInvalidRewrite, Function: callee.Name, Message: "callee is not in the module"}
	}
	if rw.fn == nil {
		return newError(ErrInvalidRewrite, "replacement outside of a function")
	}

	call := ir.StmtCall{Callee: callee.Name, Arguments: args}
	if callee.Result != nil {
		h := rw.fn.AddExpression(ir.ExprCallResult{Type: callee.Result.Type})
		call.Result = &h
	}
	return rw.ReplaceOp(op, call)
}
