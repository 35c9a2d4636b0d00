package orchestrator

import "fmt"

// ValidationError reports a rejected request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError reports an operation invoked out of pipeline order.
type StateError struct {
	Op      string
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s is not allowed while the session is in stage %q", e.Op, e.Current)
}

// PaymentRequiredError reports a stage whose payment could not be confirmed.
type PaymentRequiredError struct {
	Tier string
	Err  error
}

func (e *PaymentRequiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment for %s not confirmed: %v", e.Tier, e.Err)
	}
	return fmt.Sprintf("payment for %s not confirmed", e.Tier)
}

func (e *PaymentRequiredError) Unwrap() error { return e.Err }

// GenerationError reports an upstream model failure during a stage.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PartialFailureError reports an image batch that still has absent slots
// after all retry rounds. The filled slots are retained on the session so
// a later invocation only regenerates what is missing.
type PartialFailureError struct {
	Missing int
	Rounds  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d image slot(s) still missing after %d round(s)", e.Missing, e.Rounds)
}

// RenderError reports a document layout failure.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("document render failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
