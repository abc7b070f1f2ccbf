package policy

import "fmt"

// ValidationError describes a structural problem in a policy document.
// Loading is all-or-nothing: any ValidationError aborts the load and the
// previously active policy (if any) remains in effect.
type ValidationError struct {
	// Field is the dotted path of the offending field (e.g. "policy.name",
	// "rules[2].decision").
	Field string

	// Message explains what is wrong with the field.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid policy: %s", e.Message)
	}
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
