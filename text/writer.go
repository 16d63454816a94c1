package text

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/warpsync/ir"
)

// Writer prints a module in textual form.
// Output is deterministic: the same module always prints the same text.
type Writer struct {
	module *ir.Module

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int

	// Function context (set during function writing)
	currentFunction *ir.Function
}

// Write prints module.
func Write(module *ir.Module) (string, error) {
	if module == nil {
		return "", fmt.Errorf("module is nil")
	}
	w := &Writer{module: module}
	if err := w.writeModule(); err != nil {
		return "", err
	}
	return w.out.String(), nil
}

// TypeName returns the textual spelling of a type.
func TypeName(inner ir.TypeInner) string {
	switch t := inner.(type) {
	case ir.ScalarType:
		switch t.Kind {
		case ir.ScalarBool:
			return "i1"
		case ir.ScalarFloat:
			switch t.Width {
			case 2:
				return "half"
			case 4:
				return "float"
			case 8:
				return "double"
			}
		case ir.ScalarSint, ir.ScalarUint:
			return "i" + strconv.Itoa(int(t.Width)*8)
		}
		return fmt.Sprintf("<scalar %d:%d>", t.Kind, t.Width)
	case ir.PointerType:
		if t.Space == ir.SpaceGeneric {
			return "ptr"
		}
		return fmt.Sprintf("ptr addrspace(%d)", t.Space)
	default:
		return fmt.Sprintf("<%T>", inner)
	}
}

func (w *Writer) writeModule() error {
	for i, fn := range w.module.Functions {
		// Consecutive declarations are grouped; definitions stand apart.
		if i > 0 && (!fn.IsDeclaration() || !w.module.Functions[i-1].IsDeclaration()) {
			w.out.WriteByte('\n')
		}
		if err := w.writeFunction(fn); err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}
	return nil
}

func (w *Writer) writeFunction(fn *ir.Function) error {
	w.currentFunction = fn
	defer func() { w.currentFunction = nil }()

	if fn.IsDeclaration() {
		w.write("declare ")
	} else {
		w.write("define ")
	}
	if fn.Linkage != ir.LinkageExternal {
		w.write("%s ", fn.Linkage)
	}
	if fn.Kernel {
		w.write("ptx_kernel ")
	}
	ret, err := w.resultTypeName(fn.Result)
	if err != nil {
		return err
	}
	w.write("%s @%s(", ret, quoteName(fn.Name))

	for i, arg := range fn.Arguments {
		if i > 0 {
			w.write(", ")
		}
		typ, err := w.typeName(arg.Type)
		if err != nil {
			return err
		}
		w.out.WriteString(typ)
		if name := w.argumentName(uint32(i)); name != "" {
			w.write(" %%%s", name)
		}
	}
	w.write(")")

	if fn.IsDeclaration() {
		w.out.WriteByte('\n')
		return nil
	}

	w.write(" {\n")
	w.pushIndent()
	if err := w.writeBlock(fn.Body); err != nil {
		return err
	}
	w.popIndent()
	w.writeLine("}")
	return nil
}

func (w *Writer) writeBlock(block ir.Block) error {
	for i := range block {
		if err := w.writeStatement(&block[i]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeStatement(stmt *ir.Statement) error {
	switch k := stmt.Kind.(type) {
	case ir.StmtEmit:
		for h := k.Range.Start; h < k.Range.End; h++ {
			if err := w.writeEmitted(h); err != nil {
				return err
			}
		}

	case ir.StmtBlock:
		w.writeLine("{")
		if err := w.writeNested(k.Block); err != nil {
			return err
		}
		w.writeLine("}")

	case ir.StmtIf:
		w.writeLine("if %s {", w.valueName(k.Condition))
		if err := w.writeNested(k.Accept); err != nil {
			return err
		}
		if len(k.Reject) > 0 {
			w.writeLine("} else {")
			if err := w.writeNested(k.Reject); err != nil {
				return err
			}
		}
		w.writeLine("}")

	case ir.StmtLoop:
		w.writeLine("loop {")
		if err := w.writeNested(k.Body); err != nil {
			return err
		}
		w.writeLine("}")

	case ir.StmtBreak:
		w.writeLine("break")

	case ir.StmtContinue:
		w.writeLine("continue")

	case ir.StmtReturn:
		if k.Value == nil {
			w.writeLine("ret void")
			return nil
		}
		operand, err := w.typedOperand(*k.Value)
		if err != nil {
			return err
		}
		w.writeLine("ret %s", operand)

	case ir.StmtCall:
		var target string
		if k.Indirect != nil {
			target = w.valueName(*k.Indirect)
		} else {
			target = "@" + quoteName(k.Callee)
		}
		return w.writeCall("call", k.Result, target, k.Arguments)

	case ir.StmtCallIntrinsic:
		return w.writeCall("call_intrinsic", k.Result, `"`+k.Intrinsic+`"`, k.Arguments)

	default:
		return fmt.Errorf("unsupported statement kind: %T", k)
	}
	return nil
}

func (w *Writer) writeNested(block ir.Block) error {
	w.pushIndent()
	defer w.popIndent()
	return w.writeBlock(block)
}

func (w *Writer) writeCall(op string, result *ir.ExpressionHandle, target string, args []ir.ExpressionHandle) error {
	var sb strings.Builder
	ret := "void"
	if result != nil {
		typ, err := w.expressionTypeName(*result)
		if err != nil {
			return err
		}
		ret = typ
		sb.WriteString(w.valueName(*result))
		sb.WriteString(" = ")
	}
	fmt.Fprintf(&sb, "%s %s %s(", op, ret, target)
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		operand, err := w.typedOperand(arg)
		if err != nil {
			return err
		}
		sb.WriteString(operand)
	}
	sb.WriteByte(')')
	w.writeLine("%s", sb.String())
	return nil
}

// writeEmitted prints one emitted expression. Only binary operations
// produce a line; other kinds are referenced inline.
func (w *Writer) writeEmitted(h ir.ExpressionHandle) error {
	fn := w.currentFunction
	if int(h) >= len(fn.Expressions) {
		return fmt.Errorf("emit of expression %d out of range", h)
	}
	bin, ok := fn.Expressions[h].Kind.(ir.ExprBinary)
	if !ok {
		return nil
	}
	typ, err := w.expressionTypeName(bin.Left)
	if err != nil {
		return err
	}
	w.writeLine("%s = %s %s %s, %s", w.valueName(h), bin.Op.Mnemonic(), typ, w.valueName(bin.Left), w.valueName(bin.Right))
	return nil
}

func (w *Writer) typedOperand(h ir.ExpressionHandle) (string, error) {
	typ, err := w.expressionTypeName(h)
	if err != nil {
		return "", err
	}
	return typ + " " + w.valueName(h), nil
}

// valueName returns the operand spelling of an expression: a literal,
// a parameter or a local value name.
func (w *Writer) valueName(h ir.ExpressionHandle) string {
	fn := w.currentFunction
	if int(h) < len(fn.Expressions) {
		switch k := fn.Expressions[h].Kind.(type) {
		case ir.Literal:
			return literalString(k.Value)
		case ir.ExprFunctionArgument:
			if name := w.argumentName(k.Index); name != "" {
				return "%" + name
			}
		}
	}
	if name, ok := fn.NamedExpressions[h]; ok {
		return "%" + quoteName(name)
	}
	return "%" + strconv.FormatUint(uint64(h), 10)
}

// argumentName returns the printed name of a parameter. Definitions
// always name their parameters; declarations only when the source did.
func (w *Writer) argumentName(index uint32) string {
	fn := w.currentFunction
	if int(index) >= len(fn.Arguments) {
		return ""
	}
	if name := fn.Arguments[index].Name; name != "" {
		return quoteName(name)
	}
	if fn.IsDeclaration() {
		return ""
	}
	return "arg" + strconv.FormatUint(uint64(index), 10)
}

func (w *Writer) expressionTypeName(h ir.ExpressionHandle) (string, error) {
	res, err := ir.ResolveExpressionType(w.module, w.currentFunction, h)
	if err != nil {
		return "", err
	}
	inner := res.Inner(w.module)
	if inner == nil {
		return "", fmt.Errorf("expression %d has an invalid type", h)
	}
	return TypeName(inner), nil
}

func (w *Writer) resultTypeName(result *ir.FunctionResult) (string, error) {
	if result == nil {
		return "void", nil
	}
	return w.typeName(result.Type)
}

func (w *Writer) typeName(h ir.TypeHandle) (string, error) {
	if int(h) >= len(w.module.Types) {
		return "", fmt.Errorf("type handle %d out of range", h)
	}
	return TypeName(w.module.Types[h].Inner), nil
}

func literalString(v ir.LiteralValue) string {
	switch l := v.(type) {
	case ir.LiteralBool:
		if l {
			return "true"
		}
		return "false"
	case ir.LiteralI32:
		return strconv.FormatInt(int64(l), 10)
	case ir.LiteralI64:
		return strconv.FormatInt(int64(l), 10)
	case ir.LiteralF32:
		return floatString(float64(l), 32)
	case ir.LiteralF64:
		return floatString(float64(l), 64)
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

// floatString formats a float so that it lexes back as a float literal.
func floatString(v float64, bitSize int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quoteName returns name bare when it lexes as a symbol, quoted otherwise.
// Quoted names have no escapes.
func quoteName(name string) string {
	for _, r := range name {
		if !isNameChar(r) {
			return `"` + name + `"`
		}
	}
	if name == "" {
		return `""`
	}
	return name
}

// write writes a formatted string without indentation.
func (w *Writer) write(format string, args ...any) {
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
}

// writeLine writes an indented line.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	w.write(format, args...)
	w.out.WriteByte('\n')
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("  ")
	}
}

func (w *Writer) pushIndent() {
	w.indent++
}

func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
