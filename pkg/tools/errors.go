package tools

import (
	"errors"
	"fmt"
)

// ErrorKind classifies tool call failures.
type ErrorKind string

const (
	// ErrKindTimeout means the tool did not answer within its deadline.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindUnreachable means the connection could not be established.
	ErrKindUnreachable ErrorKind = "unreachable"
	// ErrKindBadStatus means the tool answered with a non-2xx status.
	ErrKindBadStatus ErrorKind = "bad_status"
	// ErrKindMalformed means the tool answered 2xx but the body did not parse.
	ErrKindMalformed ErrorKind = "malformed_response"
)

// ToolError is returned by every tool client on failure. Callers decide
// between retrying and surfacing a stage failure based on Kind.
type ToolError struct {
	Tool   string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *ToolError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s tool %s (status %d): %v", e.Tool, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s tool %s: %v", e.Tool, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient. Timeouts, transport
// failures and 5xx responses may succeed on a later attempt; 4xx responses
// and unparseable bodies will not.
func (e *ToolError) IsRetryable() bool {
	switch e.Kind {
	case ErrKindTimeout, ErrKindUnreachable:
		return true
	case ErrKindBadStatus:
		return e.Status >= 500
	default:
		return false
	}
}

// AsToolError extracts a *ToolError from an error chain.
func AsToolError(err error) (*ToolError, bool) {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}
