package pipeline

import (
	"context"
	"net/http"
	"reflect"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// MutationSpec configures a create or replace.
type MutationSpec[B, T any] struct {
	// Endpoint is the URL template, e.g. "/facilities/:id".
	Endpoint string

	// BodySchema validates the body before anything is sent. Nil skips validation.
	BodySchema opsdesk.Schema[B]

	// ResponseSchema validates the returned entity. Nil skips validation.
	ResponseSchema opsdesk.Schema[T]

	// Multipart sends the body as multipart/form-data instead of JSON.
	Multipart bool
}

// Mutation sends a validated body and decodes the entity the backend returns.
// Use json.RawMessage as T to receive the raw payload.
type Mutation[B, T any] struct {
	pipeline *Pipeline
	method   string
	spec     MutationSpec[B, T]
	op       string
}

// NewCreate creates a POST operation.
func NewCreate[B, T any](p *Pipeline, spec MutationSpec[B, T]) *Mutation[B, T] {
	return newMutation(p, http.MethodPost, spec)
}

// NewReplace creates a PUT operation.
func NewReplace[B, T any](p *Pipeline, spec MutationSpec[B, T]) *Mutation[B, T] {
	return newMutation(p, http.MethodPut, spec)
}

func newMutation[B, T any](p *Pipeline, method string, spec MutationSpec[B, T]) *Mutation[B, T] {
	return &Mutation[B, T]{
		pipeline: p,
		method:   method,
		spec:     spec,
		op:       opName(method, spec.Endpoint),
	}
}

// Do validates body, sends it and returns the decoded entity. A body that
// fails validation is rejected with a request validation error and no
// request is made. Cached reads are left alone; callers invalidate what the
// change makes stale.
func (m *Mutation[B, T]) Do(ctx context.Context, body B, route, query opsdesk.Params) (T, error) {
	var zero T

	err := validateBody(body, m.spec.BodySchema)
	if err != nil {
		return zero, m.pipeline.fail(m.op, err)
	}

	raw, err := m.pipeline.send(ctx, call{
		method:    m.method,
		endpoint:  m.spec.Endpoint,
		route:     route,
		query:     query,
		body:      body,
		multipart: m.spec.Multipart,
	})
	if err != nil {
		return zero, m.pipeline.fail(m.op, err)
	}

	value, err := Decode(raw, m.spec.ResponseSchema)
	if err != nil {
		return zero, m.pipeline.fail(m.op, err)
	}

	return value, nil
}

// Track returns a state handle for one consumer of this mutation.
func (m *Mutation[B, T]) Track() *TrackedMutation[B, T] {
	return &TrackedMutation[B, T]{Tracker: newTracker[T](), mutation: m}
}

// PatchSpec configures a partial update.
type PatchSpec struct {
	Endpoint  string
	Multipart bool
}

// PartialUpdate sends a PATCH without body validation, since partial bodies
// rarely satisfy the full entity schema, and returns the raw envelope.
type PartialUpdate[B any] struct {
	pipeline *Pipeline
	spec     PatchSpec
	op       string
}

// NewPartialUpdate creates a PATCH operation.
func NewPartialUpdate[B any](p *Pipeline, spec PatchSpec) *PartialUpdate[B] {
	return &PartialUpdate[B]{
		pipeline: p,
		spec:     spec,
		op:       opName(http.MethodPatch, spec.Endpoint),
	}
}

// Do sends body and returns the decoded envelope with its payload untouched.
func (u *PartialUpdate[B]) Do(ctx context.Context, body B, route, query opsdesk.Params) (*opsdesk.RawEnvelope, error) {
	raw, err := u.pipeline.send(ctx, call{
		method:    http.MethodPatch,
		endpoint:  u.spec.Endpoint,
		route:     route,
		query:     query,
		body:      body,
		multipart: u.spec.Multipart,
	})
	if err != nil {
		return nil, u.pipeline.fail(u.op, err)
	}

	env, err := DecodeRaw(raw)
	if err != nil {
		return nil, u.pipeline.fail(u.op, err)
	}

	return env, nil
}

// Track returns a state handle for one consumer of this update.
func (u *PartialUpdate[B]) Track() *TrackedPatch[B] {
	return &TrackedPatch[B]{Tracker: newTracker[*opsdesk.RawEnvelope](), update: u}
}

// DeleteSpec configures a delete.
type DeleteSpec struct {
	Endpoint string
}

// Delete sends a DELETE and returns only an error.
type Delete struct {
	pipeline *Pipeline
	spec     DeleteSpec
	op       string
}

// NewDelete creates a DELETE operation.
func NewDelete(p *Pipeline, spec DeleteSpec) *Delete {
	return &Delete{
		pipeline: p,
		spec:     spec,
		op:       opName(http.MethodDelete, spec.Endpoint),
	}
}

// Do deletes the resource. An empty reply (204) is accepted; a non-empty one
// must be an envelope.
func (d *Delete) Do(ctx context.Context, route, query opsdesk.Params) error {
	raw, err := d.pipeline.send(ctx, call{
		method:   http.MethodDelete,
		endpoint: d.spec.Endpoint,
		route:    route,
		query:    query,
	})
	if err != nil {
		return d.pipeline.fail(d.op, err)
	}

	if len(raw) == 0 {
		return nil
	}

	_, err = DecodeRaw(raw)
	if err != nil {
		return d.pipeline.fail(d.op, err)
	}

	return nil
}

// Track returns a state handle for one consumer of this delete.
func (d *Delete) Track() *TrackedDelete {
	return &TrackedDelete{Tracker: newTracker[struct{}](), delete: d}
}

func validateBody[B any](body B, schema opsdesk.Schema[B]) error {
	if isNil(body) {
		return &opsdesk.ValidationError{Fields: []opsdesk.FieldError{{Message: "request body is required"}}}
	}

	if schema == nil {
		return nil
	}

	return opsdesk.ToValidationError(schema.Validate(body))
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
