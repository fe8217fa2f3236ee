// Package saga runs the A2P registration workflow as an explicit ordered
// step list. Each step is gated by a stored write-once handle, and the driver
// persists every handle the moment its step succeeds, so a crashed or failed
// run resumes from the first unset handle without repeating external
// creation calls.
package saga

import (
	"context"

	"sendcore/internal/registration/models"
)

// Step is one resumable unit of the registration saga.
//
// Done reports whether the step's handle is already stored. Execute performs
// the external call(s) and returns the handle field and value to persist; a
// trigger step with nothing to persist returns an empty field.
type Step interface {
	Name() string
	Done(p *models.RegistrationProfile) bool
	Execute(ctx context.Context, p *models.RegistrationProfile) (models.Field, string, error)
}

// bestEffort marks steps whose failure must not abort the saga: evaluation
// and submission triggers, which the authority may process asynchronously
// from a previous attempt anyway.
type bestEffort interface {
	BestEffort()
}

func isBestEffort(s Step) bool {
	_, ok := s.(bestEffort)
	return ok
}
