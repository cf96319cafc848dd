package domain

import "errors"

// Failure is one link that could not be written.
type Failure struct {
	From Ref
	To   Ref
	Err  error
}

// Result summarizes a linking pass. Linking never fails as a whole;
// callers inspect Failed.
type Result struct {
	Created  int
	Existing int
	Failed   []Failure
}

// Add folds another result into r.
func (r *Result) Add(other Result) {
	r.Created += other.Created
	r.Existing += other.Existing
	r.Failed = append(r.Failed, other.Failed...)
}

// OK reports whether every link was written or already present.
func (r Result) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the failures, or returns nil.
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
