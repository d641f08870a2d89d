package contract

import "errors"

var (
	ErrAgentNotFound   = errors.New("agent not found")
	ErrAgentPanic      = errors.New("agent panicked")
	ErrNoResponse      = errors.New("agent returned no response")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrTimeout         = errors.New("analysis timed out")
	ErrPipelinePanic   = errors.New("pipeline panicked")
)
