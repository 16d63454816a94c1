package text

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes textual IR.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 5 characters of source.
	estTokens := len(source) / 5
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case ',':
		l.addToken(TokenComma)
	case '=':
		l.addToken(TokenEqual)

	case ';':
		// Line comment
		for l.peek() != '\n' && !l.isAtEnd() {
			l.advance()
		}

	case '@':
		return l.symbol(TokenGlobal)
	case '%':
		return l.symbol(TokenLocal)
	case '"':
		return l.str()

	case '-':
		if !isDigit(l.peek()) {
			return l.errorf("expected digit after '-'")
		}
		l.number()

	// Whitespace
	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		if isDigit(r) {
			l.number()
		} else if isAlpha(r) || r == '_' {
			l.identifier()
		} else {
			return l.errorf("unexpected character %q", r)
		}
	}

	return nil
}

// symbol scans an @global or %local name. Names are either bare
// ([A-Za-z0-9_.$-]+) or quoted.
func (l *Lexer) symbol(kind TokenKind) error {
	if l.peek() == '"' {
		l.advance()
		if err := l.str(); err != nil {
			return err
		}
		l.tokens[len(l.tokens)-1].Kind = kind
		return nil
	}

	for isNameChar(l.peek()) {
		l.advance()
	}
	if l.pos-l.start == 1 {
		return l.errorf("expected name after %q", l.source[l.start])
	}
	l.addTokenLexeme(kind, l.source[l.start+1:l.pos])
	return nil
}

func (l *Lexer) str() error {
	contentStart := l.pos
	for l.peek() != '"' {
		if l.isAtEnd() || l.peek() == '\n' {
			return l.errorf("unterminated string")
		}
		l.advance()
	}
	content := l.source[contentStart:l.pos]
	l.advance() // closing quote
	l.addTokenLexeme(TokenString, content)
	return nil
}

func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	kind := TokenIntLiteral
	if l.peek() == '.' && isDigit(l.peekNext()) {
		kind = TokenFloatLiteral
		l.advance() // consume '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		kind = TokenFloatLiteral
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	l.addToken(kind)
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' || l.peek() == '.' {
		l.advance()
	}
	l.addToken(TokenIdent)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.addTokenLexeme(kind, l.source[l.start:l.pos])
}

func (l *Lexer) addTokenLexeme(kind TokenKind, lexeme string) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: lexeme,
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	})
}

func (l *Lexer) errorf(format string, args ...interface{}) error {
	span := Span{Start: Position{Line: l.line, Column: l.column - (l.pos - l.start), Offset: l.start}}
	return NewSourceErrorf(span, l.source, format, args...)
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}

func isNameChar(r rune) bool {
	return isAlphaNumeric(r) || r == '_' || r == '.' || r == '$' || r == '-'
}
