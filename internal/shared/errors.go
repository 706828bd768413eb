package shared

import "errors"

var (
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

const genericFailureMessage = "Something went wrong, please try again"

// UserMessager is implemented by errors whose text is safe to show to end users.
type UserMessager interface {
	UserMessage() string
}

// UserSafeMessage returns text suitable for a flash or form banner. Internal
// errors collapse to a generic message so driver details never reach the page.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var safe UserMessager
	if errors.As(err, &safe) {
		return safe.UserMessage()
	}
	return genericFailureMessage
}
