package scoring

import "fmt"

// ScoringError reports a scorer that cannot run because its configuration
// (weights, thresholds or keyword tables) is missing or malformed.
type ScoringError struct {
	Message string
	Cause   error
}

func (e *ScoringError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring configuration invalid: %s: %v", e.Message, e.Cause)
	}
	return "scoring configuration invalid: " + e.Message
}

func (e *ScoringError) Unwrap() error {
	return e.Cause
}

func configError(format string, args ...any) *ScoringError {
	return &ScoringError{Message: fmt.Sprintf(format, args...)}
}
