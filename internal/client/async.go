package client

import "context"

// Result is the outcome of an asynchronous call: exactly one of Value or Err
// is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Async runs fn in its own goroutine and delivers the result on the returned
// channel, which receives exactly one value.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
