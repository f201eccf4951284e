package common

import (
	"errors"
	"fmt"
)

// SoftFailure marks a provider error that was logged and tolerated. Setup and
// teardown steps return it instead of aborting so that re-applying the stack
// converges rather than crashing half way.
type SoftFailure struct {
	Op  string
	Err error
}

func (e *SoftFailure) Error() string {
	return fmt.Sprintf("%s (non-fatal): %v", e.Op, e.Err)
}

func (e *SoftFailure) Unwrap() error { return e.Err }

// Soft wraps err as a SoftFailure for op. A nil err yields nil.
func Soft(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SoftFailure{Op: op, Err: err}
}

// IsSoftFailure reports whether err (or anything it wraps) is a SoftFailure.
func IsSoftFailure(err error) bool {
	var sf *SoftFailure
	return errors.As(err, &sf)
}
