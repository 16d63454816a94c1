package pass

import "fmt"

// ErrorKind categorizes pass failures.
type ErrorKind uint8

const (
	// ErrPassFailed indicates a pass returned an error.
	ErrPassFailed ErrorKind = iota

	// ErrVerifyFailed indicates the module failed verification.
	ErrVerifyFailed

	// ErrUnknownPass indicates a pipeline names an unregistered pass.
	ErrUnknownPass

	// ErrInvalidPipeline indicates a malformed pipeline string.
	ErrInvalidPipeline
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrPassFailed:
		return "PassFailed"
	case ErrVerifyFailed:
		return "VerifyFailed"
	case ErrUnknownPass:
		return "UnknownPass"
	case ErrInvalidPipeline:
		return "InvalidPipeline"
	default:
		return "Unknown"
	}
}

// Error implements the error interface.
func (k ErrorKind) Error() string {
	return "pass: " + k.String()
}

// Error reports a failure attributed to a pass.
type Error struct {
	// Pass names the pass, empty for failures before the first pass.
	Pass string

	// Kind categorizes the error.
	Kind ErrorKind

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	where := "pipeline"
	if e.Pass != "" {
		where = "pass " + e.Pass
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", where, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", where, e.Kind, e.Err)
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
