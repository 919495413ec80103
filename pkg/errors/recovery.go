package errors

import (
	"fmt"
	"runtime/debug"
)

// FromPanic converts a value recovered while relaying a message into
// ErrInternal. The recovered value and the goroutine stack are kept as
// details for the log line; neither reaches an HTTP or invocation response.
func FromPanic(recovered interface{}) error {
	if recovered == nil {
		return nil
	}

	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", recovered)
	}

	return ErrInternal.
		WithCause(cause).
		WithDetail("panic_value", fmt.Sprint(recovered)).
		WithDetail("stack", string(debug.Stack()))
}
