package rollup

import (
	"errors"

	"github.com/HendryAvila/wprollup/internal/workpkg"
)

// Result is the outcome of one propagation: the subject that triggered
// it and one entry per cascaded ancestor.
type Result struct {
	// Success is true only if every dependent was saved.
	Success    bool
	Subject    *workpkg.Item
	Dependents []Dependent
}

// Dependent is the save outcome for one ancestor.
type Dependent struct {
	Item    *workpkg.Item
	Success bool
	Err     error
}

// Failed returns the dependents that could not be saved.
func (r *Result) Failed() []Dependent {
	var out []Dependent
	for _, d := range r.Dependents {
		if !d.Success {
			out = append(out, d)
		}
	}
	return out
}

// Err joins the errors of all failed dependents, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, d := range r.Failed() {
		errs = append(errs, d.Err)
	}
	return errors.Join(errs...)
}

// DependentIDs lists the IDs of all cascaded ancestors in save order.
func (r *Result) DependentIDs() []int64 {
	ids := make([]int64, 0, len(r.Dependents))
	for _, d := range r.Dependents {
		ids = append(ids, d.Item.ID)
	}
	return ids
}
