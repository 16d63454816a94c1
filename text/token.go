package text

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Names and literals
	TokenIdent        // keywords, types, opcodes
	TokenGlobal       // @name
	TokenLocal        // %name
	TokenString       // "..."
	TokenIntLiteral   // 42, -1
	TokenFloatLiteral // 1.5, -2.0e3

	// Delimiters
	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
	TokenComma      // ,
	TokenEqual      // =
)

// String returns a string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "Error"
	case TokenIdent:
		return "Ident"
	case TokenGlobal:
		return "Global"
	case TokenLocal:
		return "Local"
	case TokenString:
		return "String"
	case TokenIntLiteral:
		return "IntLiteral"
	case TokenFloatLiteral:
		return "FloatLiteral"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenComma:
		return ","
	case TokenEqual:
		return "="
	default:
		return "Unknown"
	}
}

// Token represents a lexical token.
// For Global, Local and String tokens Lexeme holds the name without its
// sigil or quotes.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

// Span represents a source code location span.
type Span struct {
	Start  Position
	End    Position
	Source string // Source file name or identifier
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
	Offset int
}

// spanOf returns the span starting at tok.
func spanOf(tok Token) Span {
	return Span{Start: Position{Line: tok.Line, Column: tok.Column}}
}
