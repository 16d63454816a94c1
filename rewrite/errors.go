package rewrite

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes rewrite failures.
// Kinds are errors themselves so that errors.Is(err, ErrNotConverged) works.
type ErrorKind uint8

const (
	// ErrNotConverged indicates the driver hit its iteration limit while
	// patterns were still applying.
	ErrNotConverged ErrorKind = iota

	// ErrRewriteLimit indicates more rewrites were applied than allowed.
	ErrRewriteLimit

	// ErrRewriteFailed indicates a pattern returned an error.
	ErrRewriteFailed

	// ErrInvalidRewrite indicates a rewriter call that would leave the
	// IR inconsistent.
	ErrInvalidRewrite
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrNotConverged:
		return "NotConverged"
	case ErrRewriteLimit:
		return "RewriteLimit"
	case ErrRewriteFailed:
		return "RewriteFailed"
	case ErrInvalidRewrite:
		return "InvalidRewrite"
	default:
		return "Unknown"
	}
}

// Error implements the error interface.
func (k ErrorKind) Error() string {
	return "rewrite: " + k.String()
}

// Error represents a failed rewrite run.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Pattern names the pattern involved, if any.
	Pattern string

	// Function names the function being rewritten, if any.
	Function string

	// Message provides details about the error.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rewrite %s", e.Kind)
	if e.Pattern != "" {
		fmt.Fprintf(&sb, " in pattern %s", e.Pattern)
	}
	if e.Function != "" {
		fmt.Fprintf(&sb, " (function @%s)", e.Function)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the ErrorKind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
