package convert

import "fmt"

// ErrorKind separates fatal conditions the caller must handle differently.
type ErrorKind string

const (
	// KindInput marks errors caused by the report itself: missing,
	// unreadable, or structurally invalid input.
	KindInput ErrorKind = "input"

	// KindInvariant marks internal defects, such as a bundle that fails
	// its own integrity check. These abort the conversion.
	KindInvariant ErrorKind = "invariant"
)

// Error is a conversion failure annotated with the pipeline stage that
// produced it and the kind of failure.
type Error struct {
	Stage   string
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s error: %s: %v", e.Stage, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Stage, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func inputErr(stage, msg string, cause error) *Error {
	return &Error{Stage: stage, Kind: KindInput, Message: msg, Cause: cause}
}

func invariantErr(stage, msg string, cause error) *Error {
	return &Error{Stage: stage, Kind: KindInvariant, Message: msg, Cause: cause}
}
