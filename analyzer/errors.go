package analyzer

import "fmt"

const (
	// CodeNoCredential means the analyzer has no client to talk to the
	// model with. Retrying cannot help.
	CodeNoCredential = "no_credential"

	// CodeModelUnavailable covers transport and quota failures.
	CodeModelUnavailable = "model_unavailable"

	// CodeBadModelOutput means the model answered something that is not
	// the requested JSON shape.
	CodeBadModelOutput = "bad_model_output"
)

// Error is an analyzer failure with enough structure for callers to decide
// between retrying and falling back.
type Error struct {
	Code      string
	Analyzer  string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Analyzer, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Analyzer, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
