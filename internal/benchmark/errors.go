package benchmark

import (
	"errors"
	"fmt"
)

// TransientError marks a dependency (index API, price store) as
// temporarily unreachable. The caller retries on the next trigger; the
// release stays unprocessed.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IntegrityError marks a violated storage invariant, such as a duplicate
// release for the same date and data period. Fatal for the batch; never
// auto-retried.
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: integrity violation: %v", e.Op, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Integrity wraps err as an IntegrityError.
func Integrity(op string, err error) error {
	return &IntegrityError{Op: op, Err: err}
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsIntegrity(err error) bool {
	var i *IntegrityError
	return errors.As(err, &i)
}
