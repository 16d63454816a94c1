// Package ir defines the intermediate representation for warpsync.
//
// The IR mirrors the subset of the NVVM/LLVM dialect that GPU kernels use
// around synchronization: functions, direct and intrinsic calls, structured
// control flow and simple arithmetic.
package ir

// Module represents a compilation unit in IR form.
type Module struct {
	// Types holds all type definitions
	Types []Type

	// Functions holds all function declarations and definitions.
	// Declarations are ordinary entries whose Body is nil.
	Functions []*Function
}

// Function looks up a function by symbol name.
// Returns nil if the module has no such symbol.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Handle types for referencing IR objects
type (
	TypeHandle       uint32
	ExpressionHandle uint32
)

// Type represents a type in the IR.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner represents the inner type kind.
type TypeInner interface {
	typeInner()
}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean (i1)
)

// PointerType represents an opaque pointer into an address space.
type PointerType struct {
	Space AddressSpace
}

func (PointerType) typeInner() {}

// AddressSpace represents NVPTX memory address spaces.
type AddressSpace uint8

const (
	SpaceGeneric  AddressSpace = 0
	SpaceGlobal   AddressSpace = 1
	SpaceShared   AddressSpace = 3
	SpaceConstant AddressSpace = 4
	SpaceLocal    AddressSpace = 5
)

// Linkage describes how a function symbol is visible to the linker.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageExternWeak
	LinkageInternal
	LinkagePrivate
	LinkageWeak
	LinkageLinkOnce
)

// String returns the textual linkage keyword.
func (l Linkage) String() string {
	switch l {
	case LinkageExternal:
		return "external"
	case LinkageExternWeak:
		return "extern_weak"
	case LinkageInternal:
		return "internal"
	case LinkagePrivate:
		return "private"
	case LinkageWeak:
		return "weak"
	case LinkageLinkOnce:
		return "linkonce"
	default:
		return "unknown"
	}
}

// Function represents a function declaration or definition.
type Function struct {
	Name    string
	Linkage Linkage

	// Kernel marks a ptx_kernel entry point.
	Kernel bool

	Arguments []FunctionArgument
	Result    *FunctionResult

	Expressions []Expression

	// NamedExpressions records source names for expressions.
	NamedExpressions map[ExpressionHandle]string

	// Body is nil for declarations.
	Body Block
}

// IsDeclaration reports whether fn has no body.
func (fn *Function) IsDeclaration() bool {
	return fn.Body == nil
}

// AddExpression appends an expression to the function arena and returns its handle.
func (fn *Function) AddExpression(kind ExpressionKind) ExpressionHandle {
	h := ExpressionHandle(len(fn.Expressions))
	fn.Expressions = append(fn.Expressions, Expression{Kind: kind})
	return h
}

// FunctionArgument represents a function argument.
type FunctionArgument struct {
	Name string
	Type TypeHandle
}

// FunctionResult represents a function return type.
type FunctionResult struct {
	Type TypeHandle
}

// TypeResolution represents the resolved type of an expression.
// It can either reference a type in the module's type arena (Handle)
// or represent an inline/computed type (Value).
type TypeResolution struct {
	Handle *TypeHandle // If set, references a module type
	Value  TypeInner   // If Handle is nil, this is the inline type
}

// Inner returns the resolved inner type, looking up handles in module.
func (r TypeResolution) Inner(module *Module) TypeInner {
	if r.Handle != nil {
		if int(*r.Handle) < len(module.Types) {
			return module.Types[*r.Handle].Inner
		}
		return nil
	}
	return r.Value
}

// Expression types are defined in expression.go
// Statement types are defined in statement.go
