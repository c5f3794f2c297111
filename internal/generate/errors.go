package generate

import "fmt"

// GenerationError covers transport failures, timeouts, and empty replies from
// the text-completion service. Callers recover by falling back to the
// template generator; it only surfaces when the fallback cannot produce
// questions either.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("generation %s failed", e.Op)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ExtractionError marks a reply the extractor could not turn into questions.
// It is treated exactly like a GenerationError by the orchestrator.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract questions: %s: %v", e.Reason, e.Err)
	}
	return "extract questions: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }
