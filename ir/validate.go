package ir

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function   string
	Expression *ExpressionHandle
	Statement  int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		if e.Expression != nil {
			return fmt.Sprintf("in function %s, expression %d: %s", e.Function, *e.Expression, e.Message)
		}
		if e.Statement >= 0 {
			return fmt.Sprintf("in function %s, statement %d: %s", e.Function, e.Statement, e.Message)
		}
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}
	return e.Message
}

// Validator validates IR modules.
type Validator struct {
	module  *Module
	symbols map[string]*Function
	errors  []ValidationError
	context validationContext
}

// validationContext holds current validation context.
type validationContext struct {
	function     *Function
	functionName string
	loopDepth    int
	producers    map[ExpressionHandle]int
}

// Validate checks the IR module for correctness.
// Returns validation errors if any, or nil if module is valid.
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	v := &Validator{
		module:  module,
		symbols: make(map[string]*Function, len(module.Functions)),
		errors:  make([]ValidationError, 0),
	}

	v.ValidateModule()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateModule validates the complete module.
func (v *Validator) ValidateModule() {
	v.validateTypes()
	v.validateSymbols()
	v.validateFunctions()
}

// validateTypes checks all type definitions.
func (v *Validator) validateTypes() {
	for i, typ := range v.module.Types {
		v.validateType(TypeHandle(i), &typ)
	}
}

// validateType validates a single type.
func (v *Validator) validateType(handle TypeHandle, typ *Type) {
	if typ.Inner == nil {
		v.addError(fmt.Sprintf("type %d has nil inner type", handle))
		return
	}

	switch inner := typ.Inner.(type) {
	case ScalarType:
		switch inner.Kind {
		case ScalarBool:
			if inner.Width != 1 {
				v.addError(fmt.Sprintf("type %d: bool width must be 1 byte, got %d", handle, inner.Width))
			}
		case ScalarFloat:
			if inner.Width != 2 && inner.Width != 4 && inner.Width != 8 {
				v.addError(fmt.Sprintf("type %d: float width must be 2, 4, or 8 bytes, got %d", handle, inner.Width))
			}
		default:
			if inner.Width != 1 && inner.Width != 2 && inner.Width != 4 && inner.Width != 8 {
				v.addError(fmt.Sprintf("type %d: integer width must be 1, 2, 4, or 8 bytes, got %d", handle, inner.Width))
			}
		}

	case PointerType:
		switch inner.Space {
		case SpaceGeneric, SpaceGlobal, SpaceShared, SpaceConstant, SpaceLocal:
		default:
			v.addError(fmt.Sprintf("type %d: unknown address space %d", handle, inner.Space))
		}
	}
}

// validateSymbols checks function names and builds the symbol map used for call resolution.
func (v *Validator) validateSymbols() {
	for i, fn := range v.module.Functions {
		if fn == nil {
			v.addError(fmt.Sprintf("function %d is nil", i))
			continue
		}
		if fn.Name == "" {
			v.addError(fmt.Sprintf("function %d has empty name", i))
			continue
		}
		if _, exists := v.symbols[fn.Name]; exists {
			v.addError(fmt.Sprintf("duplicate function name %q", fn.Name))
			continue
		}
		v.symbols[fn.Name] = fn
	}
}

// validateFunctions checks all functions.
func (v *Validator) validateFunctions() {
	for _, fn := range v.module.Functions {
		if fn == nil {
			continue
		}

		v.context = validationContext{
			function:     fn,
			functionName: fn.Name,
			loopDepth:    0,
			producers:    make(map[ExpressionHandle]int),
		}

		v.validateFunction(fn)
	}
}

// validateFunction validates a single function.
func (v *Validator) validateFunction(fn *Function) {
	for i, arg := range fn.Arguments {
		if !v.isValidTypeHandle(arg.Type) {
			v.addErrorInFunction(fmt.Sprintf("argument %d (%s): type %d does not exist", i, arg.Name, arg.Type))
		}
	}

	if fn.Result != nil {
		if !v.isValidTypeHandle(fn.Result.Type) {
			v.addErrorInFunction(fmt.Sprintf("result type %d does not exist", fn.Result.Type))
		}
		if fn.Kernel {
			v.addErrorInFunction("kernel must not return a value")
		}
	}

	if fn.IsDeclaration() {
		if fn.Linkage != LinkageExternal && fn.Linkage != LinkageExternWeak {
			v.addErrorInFunction(fmt.Sprintf("declaration must have external or extern_weak linkage, got %s", fn.Linkage))
		}
		if fn.Kernel {
			v.addErrorInFunction("kernel must have a body")
		}
		if len(fn.Expressions) > 0 {
			v.addErrorInFunction("declaration must not have expressions")
		}
		return
	}

	for i, expr := range fn.Expressions {
		v.validateExpression(ExpressionHandle(i), &expr)
	}

	v.validateBlock(fn.Body)
	v.validateCallResults(fn)
}

// validateExpression validates a single expression.
func (v *Validator) validateExpression(handle ExpressionHandle, expr *Expression) {
	if expr.Kind == nil {
		v.addErrorInExpression(handle, "expression has nil kind")
		return
	}

	fn := v.context.function
	switch kind := expr.Kind.(type) {
	case Literal:
		if kind.Value == nil {
			v.addErrorInExpression(handle, "literal has nil value")
		}

	case ExprFunctionArgument:
		if int(kind.Index) >= len(fn.Arguments) {
			v.addErrorInExpression(handle, fmt.Sprintf("argument index %d out of range", kind.Index))
		}

	case ExprBinary:
		if kind.Left >= handle {
			v.addErrorInExpression(handle, fmt.Sprintf("left operand %d does not precede its use", kind.Left))
			return
		}
		if kind.Right >= handle {
			v.addErrorInExpression(handle, fmt.Sprintf("right operand %d does not precede its use", kind.Right))
			return
		}
		left, lerr := ResolveExpressionType(v.module, fn, kind.Left)
		right, rerr := ResolveExpressionType(v.module, fn, kind.Right)
		if lerr != nil || rerr != nil {
			v.addErrorInExpression(handle, "cannot resolve operand types")
			return
		}
		if !SameType(v.module, left, right) {
			v.addErrorInExpression(handle, fmt.Sprintf("operand types of %s differ", kind.Op.Mnemonic()))
		}

	case ExprCallResult:
		if !v.isValidTypeHandle(kind.Type) {
			v.addErrorInExpression(handle, fmt.Sprintf("type %d does not exist", kind.Type))
		}
	}
}

// validateBlock validates a block of statements.
func (v *Validator) validateBlock(block Block) {
	for i, stmt := range block {
		v.validateStatement(i, &stmt)
	}
}

// validateStatement validates a single statement.
func (v *Validator) validateStatement(index int, stmt *Statement) {
	if stmt.Kind == nil {
		v.addErrorInStatement(index, "statement has nil kind")
		return
	}

	fn := v.context.function
	switch kind := stmt.Kind.(type) {
	case StmtEmit:
		if kind.Range.Start > kind.Range.End || int(kind.Range.End) > len(fn.Expressions) {
			v.addErrorInStatement(index, fmt.Sprintf("emit range [%d, %d) is invalid", kind.Range.Start, kind.Range.End))
		}

	case StmtBlock:
		v.validateBlock(kind.Block)

	case StmtIf:
		if !v.isValidExpressionHandle(kind.Condition) {
			v.addErrorInStatement(index, fmt.Sprintf("condition expression %d does not exist", kind.Condition))
		} else if !v.isBool(kind.Condition) {
			v.addErrorInStatement(index, "condition must be i1")
		}
		v.validateBlock(kind.Accept)
		v.validateBlock(kind.Reject)

	case StmtLoop:
		v.context.loopDepth++
		v.validateBlock(kind.Body)
		v.context.loopDepth--

	case StmtBreak:
		if v.context.loopDepth == 0 {
			v.addErrorInStatement(index, "break outside of loop")
		}

	case StmtContinue:
		if v.context.loopDepth == 0 {
			v.addErrorInStatement(index, "continue outside of loop")
		}

	case StmtReturn:
		v.validateReturn(index, kind)

	case StmtCall:
		v.validateCall(index, kind)

	case StmtCallIntrinsic:
		if kind.Intrinsic == "" {
			v.addErrorInStatement(index, "intrinsic call has empty identifier")
		} else if !strings.HasPrefix(kind.Intrinsic, "llvm.") {
			v.addErrorInStatement(index, fmt.Sprintf("intrinsic %q is outside the llvm namespace", kind.Intrinsic))
		}
		v.validateArguments(index, kind.Arguments)
		v.validateResult(index, kind.Result, nil)
	}
}

func (v *Validator) validateReturn(index int, ret StmtReturn) {
	fn := v.context.function
	switch {
	case ret.Value == nil && fn.Result != nil:
		v.addErrorInStatement(index, "missing return value")
	case ret.Value != nil && fn.Result == nil:
		v.addErrorInStatement(index, "return value in void function")
	case ret.Value != nil:
		if !v.isValidExpressionHandle(*ret.Value) {
			v.addErrorInStatement(index, fmt.Sprintf("return value expression %d does not exist", *ret.Value))
			return
		}
		got, err := ResolveExpressionType(v.module, fn, *ret.Value)
		h := fn.Result.Type
		if err != nil || !SameType(v.module, got, TypeResolution{Handle: &h}) {
			v.addErrorInStatement(index, "return value type does not match function result")
		}
	}
}

func (v *Validator) validateCall(index int, call StmtCall) {
	fn := v.context.function
	switch {
	case call.Callee == "" && call.Indirect == nil:
		v.addErrorInStatement(index, "call has neither callee nor indirect target")
		return
	case call.Callee != "" && call.Indirect != nil:
		v.addErrorInStatement(index, "call has both callee and indirect target")
		return
	}

	v.validateArguments(index, call.Arguments)

	if call.Indirect != nil {
		if !v.isValidExpressionHandle(*call.Indirect) {
			v.addErrorInStatement(index, fmt.Sprintf("indirect target expression %d does not exist", *call.Indirect))
		} else if res, err := ResolveExpressionType(v.module, fn, *call.Indirect); err != nil {
			v.addErrorInStatement(index, "cannot resolve indirect target type")
		} else if _, ok := res.Inner(v.module).(PointerType); !ok {
			v.addErrorInStatement(index, "indirect target must be a pointer")
		}
		v.validateResult(index, call.Result, nil)
		return
	}

	callee := v.symbols[call.Callee]
	if callee == nil {
		v.addErrorInStatement(index, fmt.Sprintf("call to undefined function %q", call.Callee))
		v.validateResult(index, call.Result, nil)
		return
	}

	if len(call.Arguments) != len(callee.Arguments) {
		v.addErrorInStatement(index, fmt.Sprintf("call to %q has %d arguments, expected %d",
			call.Callee, len(call.Arguments), len(callee.Arguments)))
	} else {
		for i, arg := range call.Arguments {
			if !v.isValidExpressionHandle(arg) {
				continue
			}
			got, err := ResolveExpressionType(v.module, fn, arg)
			want := callee.Arguments[i].Type
			if err != nil || !SameType(v.module, got, TypeResolution{Handle: &want}) {
				v.addErrorInStatement(index, fmt.Sprintf("call to %q: argument %d type mismatch", call.Callee, i))
			}
		}
	}

	if call.Result != nil && callee.Result == nil {
		v.addErrorInStatement(index, fmt.Sprintf("call to void function %q has a result", call.Callee))
	}
	v.validateResult(index, call.Result, callee.Result)
}

func (v *Validator) validateArguments(index int, args []ExpressionHandle) {
	for i, arg := range args {
		if !v.isValidExpressionHandle(arg) {
			v.addErrorInStatement(index, fmt.Sprintf("argument %d expression %d does not exist", i, arg))
		}
	}
}

// validateResult checks a call result handle and records its producer.
// want is the callee's declared result when known.
func (v *Validator) validateResult(index int, result *ExpressionHandle, want *FunctionResult) {
	if result == nil {
		return
	}
	if !v.isValidExpressionHandle(*result) {
		v.addErrorInStatement(index, fmt.Sprintf("result expression %d does not exist", *result))
		return
	}
	cr, ok := v.context.function.Expressions[*result].Kind.(ExprCallResult)
	if !ok {
		v.addErrorInStatement(index, fmt.Sprintf("result expression %d is not a call result", *result))
		return
	}
	v.context.producers[*result]++
	if want != nil {
		got := TypeResolution{Handle: &cr.Type}
		exp := TypeResolution{Handle: &want.Type}
		if !SameType(v.module, got, exp) {
			v.addErrorInStatement(index, "call result type does not match callee result")
		}
	}
}

// validateCallResults checks that each call result has a single producer.
func (v *Validator) validateCallResults(fn *Function) {
	for i, expr := range fn.Expressions {
		if _, ok := expr.Kind.(ExprCallResult); !ok {
			continue
		}
		h := ExpressionHandle(i)
		switch n := v.context.producers[h]; {
		case n > 1:
			v.addErrorInExpression(h, fmt.Sprintf("call result produced by %d calls", n))
		case n == 0 && ExpressionUses(fn, h) > 0:
			v.addErrorInExpression(h, "call result used but never produced")
		}
	}
}

// Helper methods

func (v *Validator) isValidTypeHandle(handle TypeHandle) bool {
	return int(handle) < len(v.module.Types)
}

func (v *Validator) isValidExpressionHandle(handle ExpressionHandle) bool {
	return int(handle) < len(v.context.function.Expressions)
}

func (v *Validator) isBool(handle ExpressionHandle) bool {
	res, err := ResolveExpressionType(v.module, v.context.function, handle)
	if err != nil {
		return false
	}
	s, ok := res.Inner(v.module).(ScalarType)
	return ok && s.Kind == ScalarBool
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:   msg,
		Statement: -1,
	})
}

func (v *Validator) addErrorInFunction(msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:   msg,
		Function:  v.context.functionName,
		Statement: -1,
	})
}

func (v *Validator) addErrorInExpression(handle ExpressionHandle, msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:    msg,
		Function:   v.context.functionName,
		Expression: &handle,
		Statement:  -1,
	})
}

func (v *Validator) addErrorInStatement(index int, msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:   msg,
		Function:  v.context.functionName,
		Statement: index,
	})
}
