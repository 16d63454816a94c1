package ir

// Statement represents a statement in the IR.
// Statements have side effects and structured control flow, but do not produce values.
// The function body is represented as a tree of statements, with references to expressions.
type Statement struct {
	Kind StatementKind
}

// StatementKind represents the different kinds of statements.
type StatementKind interface {
	statementKind()
}

// Block represents a sequence of statements executed in order.
type Block []Statement

// Range represents a range of expression handles for Emit statements.
type Range struct {
	Start ExpressionHandle
	End   ExpressionHandle // Exclusive
}

// StmtEmit emits a range of expressions, making them visible to all statements that follow.
type StmtEmit struct {
	Range Range
}

func (StmtEmit) statementKind() {}

// StmtBlock contains a sequence of statements to be executed in order.
type StmtBlock struct {
	Block Block
}

func (StmtBlock) statementKind() {}

// StmtIf conditionally executes one of two blocks based on the condition value.
type StmtIf struct {
	Condition ExpressionHandle // Must be an i1 expression
	Accept    Block
	Reject    Block
}

func (StmtIf) statementKind() {}

// StmtLoop executes a block repeatedly until a Break or Return leaves it.
type StmtLoop struct {
	Body Block
}

func (StmtLoop) statementKind() {}

// StmtBreak exits the innermost enclosing Loop.
type StmtBreak struct{}

func (StmtBreak) statementKind() {}

// StmtContinue restarts the innermost enclosing Loop.
type StmtContinue struct{}

func (StmtContinue) statementKind() {}

// StmtReturn returns from the function, possibly with a value.
type StmtReturn struct {
	Value *ExpressionHandle
}

func (StmtReturn) statementKind() {}

// StmtCall calls a function.
// Direct calls name the callee symbol; indirect calls go through a pointer
// expression in Indirect and leave Callee empty.
// If Result is set, it must be a CallResult expression.
type StmtCall struct {
	Callee    string
	Indirect  *ExpressionHandle
	Arguments []ExpressionHandle
	Result    *ExpressionHandle
}

func (StmtCall) statementKind() {}

// StmtCallIntrinsic calls a compiler-known intrinsic by identifier,
// for example "llvm.nvvm.bar.warp.sync".
type StmtCallIntrinsic struct {
	Intrinsic string
	Arguments []ExpressionHandle
	Result    *ExpressionHandle
}

func (StmtCallIntrinsic) statementKind() {}
