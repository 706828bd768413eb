package users

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odyssey-erp/roster/internal/platform/httpx"
)

// MsgEmailExists is reported when a write collides with another user's email.
const MsgEmailExists = "Email already exists"

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("user not found")
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is raised by stores when the email unique constraint rejects a write.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// NotFoundError reports a missing user row.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %d not found", e.ID)
}

// Is lets errors.Is match ErrNotFound and the HTTP layer's not-found sentinel.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == httpx.ErrNotFound
}

// ValidationError reports rejected input. Fields maps a field name
// (first_name, last_name, email) to its message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Is lets errors.Is match ErrValidation and the HTTP layer's validation sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == httpx.ErrValidation
}

// FieldErrors implements httpx.FieldErrorer.
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Fields
}

func duplicateEmailError() *ValidationError {
	return &ValidationError{
		Message: MsgEmailExists,
		Fields:  map[string]string{"email": MsgEmailExists},
	}
}

// duplicateError wraps a driver unique-violation so callers can match ErrDuplicateEmail
// while keeping the driver error in the chain.
type duplicateError struct {
	cause error
}

func (e *duplicateError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDuplicateEmail, e.cause)
}

func (e *duplicateError) Is(target error) bool { return target == ErrDuplicateEmail }

func (e *duplicateError) Unwrap() error { return e.cause }

// UserMessage implements shared.UserMessager.
func (e *NotFoundError) UserMessage() string { return "User not found" }

// UserMessage implements shared.UserMessager.
func (e *ValidationError) UserMessage() string { return e.Error() }
