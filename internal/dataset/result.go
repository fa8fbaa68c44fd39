package dataset

// Result carries either a value or the error that prevented producing it.
// The fetch pipeline returns Result[model.Series] so that the fallback to
// stored history is an explicit OrElse at the call site.
type Result[T any] struct {
	val T
	err error
}

// Ok wraps a value.
func Ok[T any](v T) Result[T] { return Result[T]{val: v} }

// Fail wraps an error.
func Fail[T any](err error) Result[T] { return Result[T]{err: err} }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Get returns the value and error.
func (r Result[T]) Get() (T, error) { return r.val, r.err }

// OrElse returns the value, or fallback(err) when the result failed.
func (r Result[T]) OrElse(fallback func(err error) T) T {
	if r.err != nil {
		return fallback(r.err)
	}
	return r.val
}

// Then applies fn to a successful value. Failures pass through untouched.
func Then[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return fn(r.val)
}
