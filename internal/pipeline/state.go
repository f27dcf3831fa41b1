package pipeline

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Tracker holds the pending/error/success state of one consumer and
// notifies subscribers when it changes. Only the outcome of the most
// recently started call is applied; earlier calls that finish later are
// discarded.
type Tracker[T any] struct {
	mu          sync.Mutex
	deliver     sync.Mutex
	state       opsdesk.State[T]
	generation  uint64
	nextID      int
	subscribers map[int]func(opsdesk.State[T])
}

func newTracker[T any]() *Tracker[T] {
	return &Tracker[T]{subscribers: make(map[int]func(opsdesk.State[T]))}
}

// State returns the current state.
func (t *Tracker[T]) State() opsdesk.State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Subscribe registers fn for every applied state change and returns a
// function that removes it. Changes are delivered one at a time in the order
// they were applied, and never for a call that has since been superseded. fn
// must not start a call on the same tracker synchronously.
func (t *Tracker[T]) Subscribe(fn func(opsdesk.State[T])) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.subscribers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		delete(t.subscribers, id)
	}
}

// Reset returns the tracker to idle and discards any call still in flight.
func (t *Tracker[T]) Reset() {
	t.mu.Lock()
	t.generation++
	generation := t.generation
	t.state = opsdesk.State[T]{}
	t.mu.Unlock()

	t.notify(generation, opsdesk.State[T]{})
}

// run marks the tracker pending under key, calls fn and applies its outcome
// if no newer call started in the meantime. fn's result is always returned
// to the caller.
func (t *Tracker[T]) run(ctx context.Context, key opsdesk.CacheKey, fn func(context.Context) (T, error)) (T, error) {
	t.mu.Lock()
	t.generation++
	generation := t.generation

	pending := opsdesk.State[T]{Status: opsdesk.StatusPending, Key: key}
	if t.state.Key.Equal(key) {
		pending.Data = t.state.Data
	}

	t.state = pending
	t.mu.Unlock()

	t.notify(generation, pending)

	value, err := fn(ctx)

	t.mu.Lock()
	if generation != t.generation {
		t.mu.Unlock()

		return value, err
	}

	next := opsdesk.State[T]{Status: opsdesk.StatusSuccess, Data: value, Key: key}
	if err != nil {
		next = opsdesk.State[T]{Status: opsdesk.StatusError, Data: pending.Data, Err: err, Key: key}
	}

	t.state = next
	t.mu.Unlock()

	t.notify(generation, next)

	return value, err
}

// notify delivers state unless a newer call started after it was applied.
func (t *Tracker[T]) notify(generation uint64, state opsdesk.State[T]) {
	t.deliver.Lock()
	defer t.deliver.Unlock()

	t.mu.Lock()
	if generation != t.generation {
		t.mu.Unlock()

		return
	}

	subscribers := make([]func(opsdesk.State[T]), 0, len(t.subscribers))

	for _, fn := range t.subscribers {
		subscribers = append(subscribers, fn)
	}
	t.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

// Query is a consumer's view of a read: it remembers the parameters it was
// last loaded with and only ever shows the result for those parameters.
type Query[T any] struct {
	*Tracker[T]

	keyOf func(route, query opsdesk.Params) opsdesk.CacheKey
	load  func(ctx context.Context, route, query opsdesk.Params) (T, error)

	mu    sync.Mutex
	route opsdesk.Params
	query opsdesk.Params
}

func newQuery[T any](
	keyOf func(route, query opsdesk.Params) opsdesk.CacheKey,
	load func(ctx context.Context, route, query opsdesk.Params) (T, error),
) *Query[T] {
	return &Query[T]{
		Tracker: newTracker[T](),
		keyOf:   keyOf,
		load:    load,
	}
}

// Load switches the query to route and query and reads them. When Load is
// called again before this call finishes, this call's result is returned to
// its caller but never applied to the state.
func (q *Query[T]) Load(ctx context.Context, route, query opsdesk.Params) (T, error) {
	q.mu.Lock()
	q.route = route.Clone()
	q.query = query.Clone()
	q.mu.Unlock()

	return q.run(ctx, q.keyOf(route, query), func(ctx context.Context) (T, error) {
		return q.load(ctx, route, query)
	})
}

// Reload reads the parameters of the last Load again.
func (q *Query[T]) Reload(ctx context.Context) (T, error) {
	q.mu.Lock()
	route, query := q.route, q.query
	q.mu.Unlock()

	return q.Load(ctx, route, query)
}

// TrackedMutation is a create or replace with consumer state.
type TrackedMutation[B, T any] struct {
	*Tracker[T]

	mutation *Mutation[B, T]
}

// Do runs the mutation and records its outcome.
func (t *TrackedMutation[B, T]) Do(ctx context.Context, body B, route, query opsdesk.Params) (T, error) {
	return t.run(ctx, opsdesk.CacheKey{}, func(ctx context.Context) (T, error) {
		return t.mutation.Do(ctx, body, route, query)
	})
}

// TrackedPatch is a partial update with consumer state.
type TrackedPatch[B any] struct {
	*Tracker[*opsdesk.RawEnvelope]

	update *PartialUpdate[B]
}

// Do runs the update and records its outcome.
func (t *TrackedPatch[B]) Do(ctx context.Context, body B, route, query opsdesk.Params) (*opsdesk.RawEnvelope, error) {
	return t.run(ctx, opsdesk.CacheKey{}, func(ctx context.Context) (*opsdesk.RawEnvelope, error) {
		return t.update.Do(ctx, body, route, query)
	})
}

// TrackedDelete is a delete with consumer state.
type TrackedDelete struct {
	*Tracker[struct{}]

	delete *Delete
}

// Do runs the delete and records its outcome.
func (t *TrackedDelete) Do(ctx context.Context, route, query opsdesk.Params) error {
	_, err := t.run(ctx, opsdesk.CacheKey{}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.delete.Do(ctx, route, query)
	})

	return err
}
