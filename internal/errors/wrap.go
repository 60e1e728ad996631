package errors

import (
	"errors"
	"fmt"
)

// OpError records which component and operation failed, and the text the
// user is shown in place of the raw cause.
type OpError struct {
	Module    string // e.g. "advisor", "rag"
	Operation string // e.g. "accept_offer", "build_index"
	Cause     error
	Reply     string
}

// Op wraps err with its origin and the user-facing reply. It returns nil
// when err is nil.
func Op(module, operation string, err error, reply string) error {
	if err == nil {
		return nil
	}
	return &OpError{Module: module, Operation: operation, Cause: err, Reply: reply}
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Module, e.Operation, e.Cause)
}

func (e *OpError) Unwrap() error {
	return e.Cause
}

// UserMessage picks the text to show for err: the reply of the outermost
// OpError, else the message of a validation error, else err.Error().
func UserMessage(err error) string {
	var op *OpError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &op):
		return op.Reply
	}
	if v, ok := AsValidation(err); ok {
		return v.Message
	}
	return err.Error()
}
