package ai

// Result is the tagged outcome of a gateway capability. Gateway calls never
// fail: a degraded answer carries the capability's fallback value with the
// Fallback flag raised and the reason recorded for logging.
type Result[T any] struct {
	Value    T
	Fallback bool
	Reason   string
}

// Ok wraps a successful answer.
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Degraded wraps a fallback answer with the reason it degraded.
func Degraded[T any](value T, reason string) Result[T] {
	return Result[T]{Value: value, Fallback: true, Reason: reason}
}
