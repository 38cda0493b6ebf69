package nodegroup

import (
	"errors"
	"fmt"
)

// ValidationError reports a node pool whose desired size exceeds its maximum
type ValidationError struct {
	Pool    string
	Desired int
	Max     int
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("node pool %s: desired number of nodes (%d) must be less than or equal to max number of nodes (%d)",
		e.Pool, e.Desired, e.Max)
}

// Result contains the outcome of node pool validation
type Result struct {
	Valid  bool
	Errors []ValidationError
}

// NewResult creates a passing result
func NewResult() *Result {
	return &Result{
		Valid:  true,
		Errors: []ValidationError{},
	}
}

// AddError adds a validation error
func (r *Result) AddError(err ValidationError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// HasErrors returns true if there are validation errors
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first validation error, or nil
func (r *Result) First() *ValidationError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

// Err joins all validation errors into one error, or returns nil when valid
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}

	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
