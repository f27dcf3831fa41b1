package opsdesk

// Status is the lifecycle phase of an operation as seen by a consumer.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusError
	StatusSuccess
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "idle"
	}
}

// State is what a consumer renders: the phase, the last data, the last
// normalized error and the key the state belongs to.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
	Key    CacheKey
}

// IsPending reports whether a request is in flight.
func (s State[T]) IsPending() bool { return s.Status == StatusPending }

// IsError reports whether the last request failed.
func (s State[T]) IsError() bool { return s.Status == StatusError }

// IsSuccess reports whether the last request succeeded.
func (s State[T]) IsSuccess() bool { return s.Status == StatusSuccess }
