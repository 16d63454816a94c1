package ir

import (
	"github.com/oleiade/lane"
)

// walkFrame is a cursor into one block of the statement tree.
type walkFrame struct {
	block Block
	next  int
}

// Walk visits every statement of body in pre-order, program order.
// Nested blocks of a statement are visited right after the statement
// itself, so visit may replace *op and the replacement's children are
// the ones traversed.
func Walk(body Block, visit func(op *Statement)) {
	stack := lane.NewStack()
	stack.Push(&walkFrame{block: body})

	for !stack.Empty() {
		frame := stack.Head().(*walkFrame)
		if frame.next >= len(frame.block) {
			stack.Pop()
			continue
		}

		op := &frame.block[frame.next]
		frame.next++
		visit(op)

		/* push in reverse so the first child block is visited first */
		children := NestedBlocks(op.Kind)
		for i := len(children) - 1; i >= 0; i-- {
			if len(children[i]) > 0 {
				stack.Push(&walkFrame{block: children[i]})
			}
		}
	}
}

// WalkFunction visits every statement of fn. Declarations have none.
func WalkFunction(fn *Function, visit func(op *Statement)) {
	if fn.IsDeclaration() {
		return
	}
	Walk(fn.Body, visit)
}

// NestedBlocks returns the blocks directly owned by a statement kind.
func NestedBlocks(kind StatementKind) []Block {
	switch k := kind.(type) {
	case StmtBlock:
		return []Block{k.Block}
	case StmtIf:
		return []Block{k.Accept, k.Reject}
	case StmtLoop:
		return []Block{k.Body}
	default:
		return nil
	}
}

// CollectOps returns pointers to every statement of fn in walk order.
func CollectOps(fn *Function) []*Statement {
	var ops []*Statement
	WalkFunction(fn, func(op *Statement) {
		ops = append(ops, op)
	})
	return ops
}

// StatementOperands returns the expressions a statement reads.
// Call results are definitions, not operands.
func StatementOperands(kind StatementKind) []ExpressionHandle {
	switch k := kind.(type) {
	case StmtIf:
		return []ExpressionHandle{k.Condition}
	case StmtReturn:
		if k.Value != nil {
			return []ExpressionHandle{*k.Value}
		}
	case StmtCall:
		ops := make([]ExpressionHandle, 0, len(k.Arguments)+1)
		if k.Indirect != nil {
			ops = append(ops, *k.Indirect)
		}
		return append(ops, k.Arguments...)
	case StmtCallIntrinsic:
		return k.Arguments
	}
	return nil
}

// StatementResult returns the call result defined by a statement, if any.
func StatementResult(kind StatementKind) *ExpressionHandle {
	switch k := kind.(type) {
	case StmtCall:
		return k.Result
	case StmtCallIntrinsic:
		return k.Result
	}
	return nil
}

// ExpressionUses counts how many expressions and statements of fn read handle.
func ExpressionUses(fn *Function, handle ExpressionHandle) int {
	uses := 0
	for _, expr := range fn.Expressions {
		if bin, ok := expr.Kind.(ExprBinary); ok {
			if bin.Left == handle {
				uses++
			}
			if bin.Right == handle {
				uses++
			}
		}
	}
	WalkFunction(fn, func(op *Statement) {
		for _, h := range StatementOperands(op.Kind) {
			if h == handle {
				uses++
			}
		}
	})
	return uses
}

// ReplaceUses rewrites every read of from in fn to read to instead and
// returns the number of operands changed.
func ReplaceUses(fn *Function, from, to ExpressionHandle) int {
	n := 0
	swap := func(h ExpressionHandle) ExpressionHandle {
		if h == from {
			n++
			return to
		}
		return h
	}
	swapAll := func(hs []ExpressionHandle) []ExpressionHandle {
		out := make([]ExpressionHandle, len(hs))
		for i, h := range hs {
			out[i] = swap(h)
		}
		return out
	}
	swapPtr := func(h *ExpressionHandle) *ExpressionHandle {
		if h == nil {
			return nil
		}
		v := swap(*h)
		return &v
	}

	for i := range fn.Expressions {
		if bin, ok := fn.Expressions[i].Kind.(ExprBinary); ok {
			bin.Left = swap(bin.Left)
			bin.Right = swap(bin.Right)
			fn.Expressions[i].Kind = bin
		}
	}
	WalkFunction(fn, func(op *Statement) {
		switch k := op.Kind.(type) {
		case StmtIf:
			k.Condition = swap(k.Condition)
			op.Kind = k
		case StmtReturn:
			k.Value = swapPtr(k.Value)
			op.Kind = k
		case StmtCall:
			k.Indirect = swapPtr(k.Indirect)
			k.Arguments = swapAll(k.Arguments)
			op.Kind = k
		case StmtCallIntrinsic:
			k.Arguments = swapAll(k.Arguments)
			op.Kind = k
		}
	})
	return n
}
