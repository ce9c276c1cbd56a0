package types

import "github.com/zeebo/errs"

// ErrElementNotFound is the only failure kind of the DOM pipeline: a target
// was not found within the allotted bound. Lower level causes are wrapped into
// it so callers only ever test for this class.
var ErrElementNotFound = errs.Class("element not found")

func IsElementNotFound(err error) bool {
	return ErrElementNotFound.Has(err)
}
