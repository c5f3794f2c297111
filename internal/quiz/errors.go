package quiz

import "fmt"

// ValidationError marks an invariant violation at construction time. It is
// fatal to that construction and never silently coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError marks an ordering/programming error such as submitting an
// attempt twice or navigating out of bounds.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
