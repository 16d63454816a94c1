package text

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gogpu/warpsync/ir"
)

var linkages = map[string]ir.Linkage{
	"external":    ir.LinkageExternal,
	"extern_weak": ir.LinkageExternWeak,
	"internal":    ir.LinkageInternal,
	"private":     ir.LinkagePrivate,
	"weak":        ir.LinkageWeak,
	"linkonce":    ir.LinkageLinkOnce,
}

// Parse lexes and parses source into a module.
func Parse(source string) (*ir.Module, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, source).Parse()
}

// Parser parses tokens into an IR module.
type Parser struct {
	tokens  []Token
	current int
	source  string
	errors  SourceErrors

	module *ir.Module
	types  *ir.TypeRegistry

	// Function context
	fn      *ir.Function
	locals  map[string]ir.ExpressionHandle
	args    map[string]uint32
	argExpr map[uint32]ir.ExpressionHandle
}

// NewParser creates a new parser for the given tokens.
// source is only used to render error context and may be empty.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{
		tokens: tokens,
		source: source,
		module: &ir.Module{},
		types:  ir.NewTypeRegistry(),
	}
}

// Parse parses the tokens and returns the module.
// On failure the partially parsed module is returned with SourceErrors.
func (p *Parser) Parse() (*ir.Module, error) {
	for !p.isAtEnd() {
		fn, err := p.function()
		if err != nil {
			p.errors.Add(err)
			p.synchronize()
			continue
		}
		p.module.Functions = append(p.module.Functions, fn)
	}

	p.module.Types = p.types.GetTypes()

	if p.errors.HasErrors() {
		return p.module, p.errors
	}
	return p.module, nil
}

// function parses a declare or define.
func (p *Parser) function() (*ir.Function, *SourceError) {
	tok := p.advance()
	if tok.Kind != TokenIdent || (tok.Lexeme != "declare" && tok.Lexeme != "define") {
		return nil, p.errorAt(tok, "expected 'declare' or 'define', got %s", describe(tok))
	}
	define := tok.Lexeme == "define"

	fn := &ir.Function{}
	if p.check(TokenIdent) {
		if linkage, ok := linkages[p.peek().Lexeme]; ok {
			p.advance()
			fn.Linkage = linkage
		}
	}
	if p.checkIdent("ptx_kernel") {
		p.advance()
		fn.Kernel = true
	}

	result, err := p.returnType()
	if err != nil {
		return nil, err
	}
	if result != nil {
		fn.Result = &ir.FunctionResult{Type: *result}
	}

	name := p.advance()
	if name.Kind != TokenGlobal {
		return nil, p.errorAt(name, "expected function name, got %s", describe(name))
	}
	fn.Name = name.Lexeme

	if err := p.parameters(fn, define); err != nil {
		return nil, err
	}

	if !define {
		return fn, nil
	}

	p.beginFunction(fn)
	defer p.endFunction()

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

func (p *Parser) beginFunction(fn *ir.Function) {
	p.fn = fn
	p.locals = make(map[string]ir.ExpressionHandle)
	p.args = make(map[string]uint32, len(fn.Arguments))
	p.argExpr = make(map[uint32]ir.ExpressionHandle, len(fn.Arguments))
	for i, arg := range fn.Arguments {
		if arg.Name != "" {
			p.args[arg.Name] = uint32(i)
		}
	}
}

func (p *Parser) endFunction() {
	p.fn = nil
	p.locals = nil
	p.args = nil
	p.argExpr = nil
}

// parameters parses "(type [%name], ...)". Names are required in definitions.
func (p *Parser) parameters(fn *ir.Function, define bool) *SourceError {
	if err := p.expect(TokenLeftParen); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		typ, err := p.typeSpec()
		if err != nil {
			return err
		}
		arg := ir.FunctionArgument{Type: typ}
		if p.check(TokenLocal) {
			tok := p.advance()
			if seen[tok.Lexeme] {
				return p.errorAt(tok, "duplicate parameter %%%s", tok.Lexeme)
			}
			seen[tok.Lexeme] = true
			arg.Name = tok.Lexeme
		} else if define {
			return p.errorAt(p.peek(), "expected parameter name, got %s", describe(p.peek()))
		}
		fn.Arguments = append(fn.Arguments, arg)

		if !p.match(TokenComma) {
			break
		}
	}
	return p.expect(TokenRightParen)
}

// returnType parses "void" or a type. A nil handle means void.
func (p *Parser) returnType() (*ir.TypeHandle, *SourceError) {
	if p.checkIdent("void") {
		p.advance()
		return nil, nil
	}
	h, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// typeSpec parses a first-class type.
func (p *Parser) typeSpec() (ir.TypeHandle, *SourceError) {
	tok := p.advance()
	if tok.Kind != TokenIdent {
		return 0, p.errorAt(tok, "expected type, got %s", describe(tok))
	}

	var inner ir.TypeInner
	switch tok.Lexeme {
	case "i1":
		inner = ir.ScalarType{Kind: ir.ScalarBool, Width: 1}
	case "i8":
		inner = ir.ScalarType{Kind: ir.ScalarSint, Width: 1}
	case "i16":
		inner = ir.ScalarType{Kind: ir.ScalarSint, Width: 2}
	case "i32":
		inner = ir.ScalarType{Kind: ir.ScalarSint, Width: 4}
	case "i64":
		inner = ir.ScalarType{Kind: ir.ScalarSint, Width: 8}
	case "half":
		inner = ir.ScalarType{Kind: ir.ScalarFloat, Width: 2}
	case "float":
		inner = ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	case "double":
		inner = ir.ScalarType{Kind: ir.ScalarFloat, Width: 8}
	case "ptr":
		ptr := ir.PointerType{Space: ir.SpaceGeneric}
		if p.checkIdent("addrspace") {
			p.advance()
			if err := p.expect(TokenLeftParen); err != nil {
				return 0, err
			}
			num := p.advance()
			space, convErr := strconv.ParseUint(num.Lexeme, 10, 8)
			if num.Kind != TokenIntLiteral || convErr != nil {
				return 0, p.errorAt(num, "invalid address space %s", describe(num))
			}
			ptr.Space = ir.AddressSpace(space)
			if err := p.expect(TokenRightParen); err != nil {
				return 0, err
			}
		}
		inner = ptr
	case "void":
		return 0, p.errorAt(tok, "void is only valid as a return type")
	default:
		return 0, p.errorAt(tok, "unknown type %q", tok.Lexeme)
	}

	return p.types.GetOrCreate(TypeName(inner), inner), nil
}

// block parses statements up to and including the closing brace.
func (p *Parser) block() (ir.Block, *SourceError) {
	body := ir.Block{}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	if err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return body, nil
}

// statement parses one statement. Binary operations expand to an Emit.
func (p *Parser) statement() ([]ir.Statement, *SourceError) {
	tok := p.peek()

	if tok.Kind == TokenLocal {
		return p.assignment()
	}
	if tok.Kind == TokenLeftBrace {
		p.advance()
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return stmts(ir.StmtBlock{Block: body}), nil
	}
	if tok.Kind != TokenIdent {
		return nil, p.errorAt(tok, "expected statement, got %s", describe(tok))
	}

	switch tok.Lexeme {
	case "call":
		p.advance()
		kind, err := p.call(nil)
		if err != nil {
			return nil, err
		}
		return stmts(kind), nil
	case "call_intrinsic":
		p.advance()
		kind, err := p.intrinsic(nil)
		if err != nil {
			return nil, err
		}
		return stmts(kind), nil
	case "if":
		return p.ifStmt()
	case "loop":
		p.advance()
		if err := p.expect(TokenLeftBrace); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return stmts(ir.StmtLoop{Body: body}), nil
	case "break":
		p.advance()
		return stmts(ir.StmtBreak{}), nil
	case "continue":
		p.advance()
		return stmts(ir.StmtContinue{}), nil
	case "ret":
		return p.returnStmt()
	default:
		return nil, p.errorAt(tok, "unknown statement %q", tok.Lexeme)
	}
}

// assignment parses "%name = <op> ...".
func (p *Parser) assignment() ([]ir.Statement, *SourceError) {
	nameTok := p.advance()
	name := nameTok.Lexeme
	if _, exists := p.locals[name]; exists {
		return nil, p.errorAt(nameTok, "redefinition of %%%s", name)
	}
	if _, exists := p.args[name]; exists {
		return nil, p.errorAt(nameTok, "redefinition of parameter %%%s", name)
	}
	if err := p.expect(TokenEqual); err != nil {
		return nil, err
	}

	opTok := p.advance()
	if opTok.Kind != TokenIdent {
		return nil, p.errorAt(opTok, "expected instruction, got %s", describe(opTok))
	}

	switch opTok.Lexeme {
	case "call":
		kind, err := p.call(&nameTok)
		if err != nil {
			return nil, err
		}
		return stmts(kind), nil
	case "call_intrinsic":
		kind, err := p.intrinsic(&nameTok)
		if err != nil {
			return nil, err
		}
		return stmts(kind), nil
	}

	op, ok := ir.BinaryOperatorFromMnemonic(opTok.Lexeme)
	if !ok {
		return nil, p.errorAt(opTok, "unknown instruction %q", opTok.Lexeme)
	}
	typ, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	left, err := p.operand(typ)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenComma); err != nil {
		return nil, err
	}
	right, err := p.operand(typ)
	if err != nil {
		return nil, err
	}

	h := p.fn.AddExpression(ir.ExprBinary{Op: op, Left: left, Right: right})
	p.define(name, h)
	return stmts(ir.StmtEmit{Range: ir.Range{Start: h, End: h + 1}}), nil
}

// call parses the remainder of "call <ret> @callee(args)" or an indirect
// "call <ret> %target(args)".
func (p *Parser) call(result *Token) (ir.StatementKind, *SourceError) {
	retType, err := p.returnType()
	if err != nil {
		return nil, err
	}

	var call ir.StmtCall
	target := p.advance()
	switch target.Kind {
	case TokenGlobal:
		call.Callee = target.Lexeme
	case TokenLocal:
		h, err := p.reference(target)
		if err != nil {
			return nil, err
		}
		call.Indirect = &h
	default:
		return nil, p.errorAt(target, "expected callee, got %s", describe(target))
	}

	call.Arguments, err = p.arguments()
	if err != nil {
		return nil, err
	}
	call.Result, err = p.callResult(result, retType)
	if err != nil {
		return nil, err
	}
	return call, nil
}

// intrinsic parses the remainder of `call_intrinsic <ret> "name"(args)`.
func (p *Parser) intrinsic(result *Token) (ir.StatementKind, *SourceError) {
	retType, err := p.returnType()
	if err != nil {
		return nil, err
	}

	id := p.advance()
	if id.Kind != TokenString {
		return nil, p.errorAt(id, "expected intrinsic identifier string, got %s", describe(id))
	}

	call := ir.StmtCallIntrinsic{Intrinsic: id.Lexeme}
	call.Arguments, err = p.arguments()
	if err != nil {
		return nil, err
	}
	call.Result, err = p.callResult(result, retType)
	if err != nil {
		return nil, err
	}
	return call, nil
}

// callResult creates the result expression of a call. Non-void calls
// always produce one; unnamed results print by handle.
func (p *Parser) callResult(result *Token, retType *ir.TypeHandle) (*ir.ExpressionHandle, *SourceError) {
	if retType == nil {
		if result != nil {
			return nil, p.errorAt(*result, "cannot name the result of a void call")
		}
		return nil, nil
	}
	h := p.fn.AddExpression(ir.ExprCallResult{Type: *retType})
	if result != nil {
		p.define(result.Lexeme, h)
	}
	return &h, nil
}

// arguments parses "(type operand, ...)".
func (p *Parser) arguments() ([]ir.ExpressionHandle, *SourceError) {
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	var args []ir.ExpressionHandle
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		typ, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		h, err := p.operand(typ)
		if err != nil {
			return nil, err
		}
		args = append(args, h)

		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) ifStmt() ([]ir.Statement, *SourceError) {
	p.advance() // if
	boolType := p.types.GetOrCreate("i1", ir.ScalarType{Kind: ir.ScalarBool, Width: 1})
	cond, err := p.operand(boolType)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	accept, err := p.block()
	if err != nil {
		return nil, err
	}

	reject := ir.Block{}
	if p.checkIdent("else") {
		p.advance()
		if err := p.expect(TokenLeftBrace); err != nil {
			return nil, err
		}
		reject, err = p.block()
		if err != nil {
			return nil, err
		}
	}

	return stmts(ir.StmtIf{Condition: cond, Accept: accept, Reject: reject}), nil
}

func (p *Parser) returnStmt() ([]ir.Statement, *SourceError) {
	p.advance() // ret
	typ, err := p.returnType()
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return stmts(ir.StmtReturn{}), nil
	}
	h, err := p.operand(*typ)
	if err != nil {
		return nil, err
	}
	return stmts(ir.StmtReturn{Value: &h}), nil
}

// operand parses a value reference or a literal of type typ.
func (p *Parser) operand(typ ir.TypeHandle) (ir.ExpressionHandle, *SourceError) {
	tok := p.advance()
	if tok.Kind == TokenLocal {
		return p.reference(tok)
	}

	inner, _ := p.types.Lookup(typ)
	lit, err := p.literal(tok, inner.Inner)
	if err != nil {
		return 0, err
	}
	return p.fn.AddExpression(ir.Literal{Value: lit}), nil
}

func (p *Parser) literal(tok Token, inner ir.TypeInner) (ir.LiteralValue, *SourceError) {
	scalar, ok := inner.(ir.ScalarType)
	if !ok {
		return nil, p.errorAt(tok, "expected value of type %s, got %s", TypeName(inner), describe(tok))
	}

	switch {
	case scalar.Kind == ir.ScalarBool:
		switch {
		case tok.Kind == TokenIdent && tok.Lexeme == "true", tok.Kind == TokenIntLiteral && tok.Lexeme == "1":
			return ir.LiteralBool(true), nil
		case tok.Kind == TokenIdent && tok.Lexeme == "false", tok.Kind == TokenIntLiteral && tok.Lexeme == "0":
			return ir.LiteralBool(false), nil
		}
		return nil, p.errorAt(tok, "invalid i1 literal %s", describe(tok))

	case scalar.Kind == ir.ScalarFloat:
		if tok.Kind != TokenIntLiteral && tok.Kind != TokenFloatLiteral {
			return nil, p.errorAt(tok, "expected float literal, got %s", describe(tok))
		}
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil || math.IsInf(v, 0) {
			return nil, p.errorAt(tok, "invalid float literal %q", tok.Lexeme)
		}
		switch scalar.Width {
		case 4:
			return ir.LiteralF32(v), nil
		case 8:
			return ir.LiteralF64(v), nil
		}

	case tok.Kind == TokenIntLiteral:
		switch scalar.Width {
		case 4:
			v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
			if err != nil {
				return nil, p.errorAt(tok, "invalid i32 literal %q", tok.Lexeme)
			}
			return ir.LiteralI32(v), nil
		case 8:
			v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
			if err != nil {
				return nil, p.errorAt(tok, "invalid i64 literal %q", tok.Lexeme)
			}
			return ir.LiteralI64(v), nil
		}

	default:
		return nil, p.errorAt(tok, "expected integer literal, got %s", describe(tok))
	}

	return nil, p.errorAt(tok, "literals of type %s are not supported", TypeName(inner))
}

// reference resolves a %name to a local value or parameter.
func (p *Parser) reference(tok Token) (ir.ExpressionHandle, *SourceError) {
	if h, ok := p.locals[tok.Lexeme]; ok {
		return h, nil
	}
	if idx, ok := p.args[tok.Lexeme]; ok {
		if h, ok := p.argExpr[idx]; ok {
			return h, nil
		}
		h := p.fn.AddExpression(ir.ExprFunctionArgument{Index: idx})
		p.argExpr[idx] = h
		return h, nil
	}
	return 0, p.errorAt(tok, "use of undefined value %%%s", tok.Lexeme)
}

func (p *Parser) define(name string, h ir.ExpressionHandle) {
	p.locals[name] = h
	if p.fn.NamedExpressions == nil {
		p.fn.NamedExpressions = make(map[ir.ExpressionHandle]string)
	}
	p.fn.NamedExpressions[h] = name
}

func stmts(kind ir.StatementKind) []ir.Statement {
	return []ir.Statement{{Kind: kind}}
}

// Token helpers

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) checkIdent(lexeme string) bool {
	return p.check(TokenIdent) && p.peek().Lexeme == lexeme
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind) *SourceError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.errorAt(p.peek(), "expected %s, got %s", kind, describe(p.peek()))
}

func (p *Parser) errorAt(tok Token, format string, args ...interface{}) *SourceError {
	return NewSourceErrorf(spanOf(tok), p.source, format, args...)
}

// synchronize skips to the next top-level declaration.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.checkIdent("declare") || p.checkIdent("define") {
			return
		}
		p.advance()
	}
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "end of input"
	case TokenGlobal:
		return "@" + tok.Lexeme
	case TokenLocal:
		return "%" + tok.Lexeme
	case TokenString:
		return strconv.Quote(tok.Lexeme)
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral:
		return fmt.Sprintf("%q", tok.Lexeme)
	default:
		return tok.Kind.String()
	}
}
