package tinystore

// Status is the resolution state of a store
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// ResultState tags a Result
type ResultState int

const (
	// Empty means no value was ever produced and no default is configured
	Empty ResultState = iota
	Ready
	Pending
	Failed
)

func (s ResultState) String() string {
	switch s {
	case Ready:
		return "ready"
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	default:
		return "empty"
	}
}

// Result is the outcome of polling a store.
// Value is set when State is Ready, Handle when Pending, Err when Failed.
type Result[T any] struct {
	State  ResultState
	Value  T
	Handle *Handle
	Err    error
}

func (r Result[T]) IsReady() bool {
	return r.State == Ready
}

func (r Result[T]) IsPending() bool {
	return r.State == Pending
}

func (r Result[T]) IsFailed() bool {
	return r.State == Failed
}
