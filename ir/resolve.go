package ir

import "fmt"

// ResolveExpressionType resolves the type of an expression in a function.
// Returns a TypeResolution that either references a module type or contains an inline type.
func ResolveExpressionType(module *Module, fn *Function, handle ExpressionHandle) (TypeResolution, error) {
	if int(handle) >= len(fn.Expressions) {
		return TypeResolution{}, fmt.Errorf("expression handle %d out of range (max %d)", handle, len(fn.Expressions))
	}

	expr := fn.Expressions[handle]

	switch kind := expr.Kind.(type) {
	case Literal:
		return resolveLiteralType(kind)
	case ExprFunctionArgument:
		if int(kind.Index) >= len(fn.Arguments) {
			return TypeResolution{}, fmt.Errorf("function argument index %d out of range", kind.Index)
		}
		h := fn.Arguments[kind.Index].Type
		return TypeResolution{Handle: &h}, nil
	case ExprBinary:
		return resolveBinaryType(module, fn, handle, kind)
	case ExprCallResult:
		h := kind.Type
		return TypeResolution{Handle: &h}, nil
	default:
		return TypeResolution{}, fmt.Errorf("unsupported expression kind: %T", kind)
	}
}

func resolveLiteralType(lit Literal) (TypeResolution, error) {
	switch v := lit.Value.(type) {
	case LiteralF64:
		return TypeResolution{Value: ScalarType{Kind: ScalarFloat, Width: 8}}, nil
	case LiteralF32:
		return TypeResolution{Value: ScalarType{Kind: ScalarFloat, Width: 4}}, nil
	case LiteralI32:
		return TypeResolution{Value: ScalarType{Kind: ScalarSint, Width: 4}}, nil
	case LiteralI64:
		return TypeResolution{Value: ScalarType{Kind: ScalarSint, Width: 8}}, nil
	case LiteralBool:
		return TypeResolution{Value: ScalarType{Kind: ScalarBool, Width: 1}}, nil
	default:
		return TypeResolution{}, fmt.Errorf("unknown literal type: %T", v)
	}
}

func resolveBinaryType(module *Module, fn *Function, handle ExpressionHandle, expr ExprBinary) (TypeResolution, error) {
	if expr.Op.IsComparison() {
		return TypeResolution{Value: ScalarType{Kind: ScalarBool, Width: 1}}, nil
	}
	// Operands are defined before their users.
	if expr.Left >= handle {
		return TypeResolution{}, fmt.Errorf("binary left operand %d does not precede expression %d", expr.Left, handle)
	}
	return ResolveExpressionType(module, fn, expr.Left)
}

// SameType reports whether two resolutions denote structurally equal types.
func SameType(module *Module, a, b TypeResolution) bool {
	ai, bi := a.Inner(module), b.Inner(module)
	if ai == nil || bi == nil {
		return false
	}
	return ai == bi
}
