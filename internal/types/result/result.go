// Package result holds a two-armed outcome value used to thread failures
// through a chain of steps without panics or early returns at every level.
package result

import (
	"context"

	"github.com/zeebo/errs"

	"github.com/Philanthropists/autofinish/internal/types"
)

// ErrNilFailure replaces a nil error handed to Fail, so a failed Result always
// carries a non-nil error.
var ErrNilFailure = errs.Class("nil failure")

type Tag uint8

const (
	TagOk Tag = iota + 1
	TagErr
)

func (t Tag) String() string {
	switch t {
	case TagOk:
		return "ok"
	case TagErr:
		return "err"
	default:
		return "invalid"
	}
}

// Result is either a success carrying a value or a failure carrying an error.
// The zero Result is neither and reports TagErr with ErrNilFailure.
type Result[V any] struct {
	tag   Tag
	value V
	err   error
}

func Succeed[V any](v V) Result[V] {
	return Result[V]{tag: TagOk, value: v}
}

func Fail[V any](err error) Result[V] {
	if err == nil {
		err = ErrNilFailure.New("fail called without an error")
	}
	return Result[V]{tag: TagErr, err: err}
}

// FromPair builds a Result from the usual (value, error) return pair.
func FromPair[V any](v V, err error) Result[V] {
	if err != nil {
		return Fail[V](err)
	}
	return Succeed(v)
}

func (r Result[V]) Tag() Tag {
	if r.tag != TagOk {
		return TagErr
	}
	return TagOk
}

func (r Result[V]) IsOk() bool {
	return r.tag == TagOk
}

// Get returns the value and whether r is a success.
func (r Result[V]) Get() (V, bool) {
	if r.tag != TagOk {
		var zero V
		return zero, false
	}
	return r.value, true
}

// Unwrap returns the value and error as a conventional pair.
func (r Result[V]) Unwrap() (V, error) {
	if r.tag != TagOk {
		var zero V
		return zero, r.Err()
	}
	return r.value, nil
}

// Err returns the failure's error, or nil on success.
func (r Result[V]) Err() error {
	switch r.tag {
	case TagOk:
		return nil
	case TagErr:
		return r.err
	default:
		return ErrNilFailure.New("zero result")
	}
}

// MapError transforms the error of a failure. Successes pass through and f
// is not called.
func (r Result[V]) MapError(f func(error) error) Result[V] {
	if r.tag == TagOk {
		return r
	}
	return Fail[V](f(r.Err()))
}

// Match calls exactly one of onOk or onErr.
func (r Result[V]) Match(onOk func(V), onErr func(error)) {
	if r.tag == TagOk {
		onOk(r.value)
		return
	}
	onErr(r.Err())
}

// AndThen chains f onto a success. A failure is returned unchanged and f is
// not called.
func AndThen[V, W any](r Result[V], f func(V) Result[W]) Result[W] {
	if r.tag != TagOk {
		return Fail[W](r.Err())
	}
	return f(r.value)
}

// Map transforms the value of a success.
func Map[V, W any](r Result[V], f func(V) W) Result[W] {
	if r.tag != TagOk {
		return Fail[W](r.Err())
	}
	return Succeed(f(r.value))
}

// AndThenAsync runs f on its own goroutine when r is a success and waits for
// its Result. If ctx ends first the returned failure is an element-not-found
// wrapping ctx.Err(). f shares ctx and is always waited for, so nothing it
// does outlives the call.
func AndThenAsync[V, W any](ctx context.Context, r Result[V], f func(context.Context, V) Result[W]) Result[W] {
	if r.tag != TagOk {
		return Fail[W](r.Err())
	}

	out := make(chan Result[W], 1)
	go func() {
		out <- f(ctx, r.value)
	}()

	select {
	case res := <-out:
		return res
	case <-ctx.Done():
		<-out
		return Fail[W](types.ErrElementNotFound.Wrap(ctx.Err()))
	}
}
