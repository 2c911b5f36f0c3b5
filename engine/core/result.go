package core

import "errors"

// ErrNoValue is reported by a failed Result that carries no cause.
var ErrNoValue = errors.New("no value")

// Result is the outcome of a backend call: a value or a failure, never both.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Failed wraps a failure. A nil err is replaced by ErrNoValue.
func Failed[T any](err error) Result[T] {
	if err == nil {
		err = ErrNoValue
	}
	return Result[T]{err: err}
}

// Get returns the value and whether the result succeeded.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// Err returns the failure cause, or nil on success.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return ErrNoValue
	}
	return r.err
}
