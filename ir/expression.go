package ir

// Expression represents an expression in the IR.
// Expressions are values in SSA form; statements make them visible.
type Expression struct {
	Kind ExpressionKind
}

// ExpressionKind represents the different kinds of expressions.
type ExpressionKind interface {
	expressionKind()
}

// Literal represents a literal constant value.
type Literal struct {
	Value LiteralValue
}

func (Literal) expressionKind() {}

// LiteralValue represents the value of a literal.
type LiteralValue interface {
	literalValue()
}

// LiteralF64 represents a 64-bit float literal (double).
type LiteralF64 float64

func (LiteralF64) literalValue() {}

// LiteralF32 represents a 32-bit float literal (float).
type LiteralF32 float32

func (LiteralF32) literalValue() {}

// LiteralI32 represents a 32-bit signed integer literal.
type LiteralI32 int32

func (LiteralI32) literalValue() {}

// LiteralI64 represents a 64-bit signed integer literal.
type LiteralI64 int64

func (LiteralI64) literalValue() {}

// LiteralBool represents an i1 literal.
type LiteralBool bool

func (LiteralBool) literalValue() {}

// ExprFunctionArgument references a function parameter by its index.
type ExprFunctionArgument struct {
	Index uint32
}

func (ExprFunctionArgument) expressionKind() {}

// ExprBinary applies a binary operator to two operands of the same type.
// Comparison operators produce an i1.
type ExprBinary struct {
	Op    BinaryOperator
	Left  ExpressionHandle
	Right ExpressionHandle
}

func (ExprBinary) expressionKind() {}

// BinaryOperator represents binary operators.
type BinaryOperator uint8

const (
	BinaryAdd BinaryOperator = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
	BinaryAnd
	BinaryExclusiveOr
	BinaryInclusiveOr
	BinaryShiftLeft
	BinaryShiftRight
)

// IsComparison reports whether op yields a boolean.
func (op BinaryOperator) IsComparison() bool {
	return op >= BinaryEqual && op <= BinaryGreaterEqual
}

// Mnemonic returns the textual opcode of op.
func (op BinaryOperator) Mnemonic() string {
	switch op {
	case BinaryAdd:
		return "add"
	case BinarySubtract:
		return "sub"
	case BinaryMultiply:
		return "mul"
	case BinaryDivide:
		return "div"
	case BinaryModulo:
		return "rem"
	case BinaryEqual:
		return "eq"
	case BinaryNotEqual:
		return "ne"
	case BinaryLess:
		return "lt"
	case BinaryLessEqual:
		return "le"
	case BinaryGreater:
		return "gt"
	case BinaryGreaterEqual:
		return "ge"
	case BinaryAnd:
		return "and"
	case BinaryExclusiveOr:
		return "xor"
	case BinaryInclusiveOr:
		return "or"
	case BinaryShiftLeft:
		return "shl"
	case BinaryShiftRight:
		return "shr"
	default:
		return "unknown"
	}
}

// BinaryOperatorFromMnemonic is the inverse of BinaryOperator.Mnemonic.
func BinaryOperatorFromMnemonic(s string) (BinaryOperator, bool) {
	for op := BinaryAdd; op <= BinaryShiftRight; op++ {
		if op.Mnemonic() == s {
			return op, true
		}
	}
	return 0, false
}

// ExprCallResult is the result produced by a call statement.
// Type is the callee's declared result type.
type ExprCallResult struct {
	Type TypeHandle
}

func (ExprCallResult) expressionKind() {}
