package pipeline

import (
	"context"
	"net/http"
	"slices"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// ReadSpec configures a read or paginated read.
type ReadSpec[T any] struct {
	// Name is the logical resource name that scopes cache keys, e.g. "facilities".
	Name string

	// Endpoint is the URL template, e.g. "/facilities/:id".
	Endpoint string

	// BaseKey holds params that scope every key of this read without being sent.
	BaseKey opsdesk.Params

	// Schema validates the decoded payload (the item, for paginated reads).
	// Nil skips validation.
	Schema opsdesk.Schema[T]
}

// Read fetches a single decoded entity through the query cache.
type Read[T any] struct {
	pipeline *Pipeline
	spec     ReadSpec[T]
	op       string
}

// NewRead creates a read operation.
func NewRead[T any](p *Pipeline, spec ReadSpec[T]) *Read[T] {
	return &Read[T]{
		pipeline: p,
		spec:     spec,
		op:       opName(http.MethodGet, spec.Endpoint),
	}
}

// Key returns the cache key a call with route and query resolves to.
func (r *Read[T]) Key(route, query opsdesk.Params) opsdesk.CacheKey {
	return opsdesk.DeriveKey(r.spec.Name, r.spec.BaseKey, route, query)
}

// Do returns the entity, from the cache when present. Concurrent calls with
// the same key share a single request.
func (r *Read[T]) Do(ctx context.Context, route, query opsdesk.Params) (T, error) {
	value, err := opsdesk.GetOrFetch(ctx, r.pipeline.cache, r.Key(route, query), func(ctx context.Context) (T, error) {
		return r.fetch(ctx, route, query)
	})
	if err != nil {
		var zero T

		return zero, r.pipeline.fail(r.op, err)
	}

	return value, nil
}

// Refresh drops the cached entity and reads it again.
func (r *Read[T]) Refresh(ctx context.Context, route, query opsdesk.Params) (T, error) {
	r.pipeline.cache.Invalidate(r.Key(route, query))

	return r.Do(ctx, route, query)
}

// Query returns a state handle for one consumer of this read.
func (r *Read[T]) Query() *Query[T] {
	return newQuery(r.Key, r.Do)
}

func (r *Read[T]) fetch(ctx context.Context, route, query opsdesk.Params) (T, error) {
	var zero T

	body, err := r.pipeline.send(ctx, call{
		method:   http.MethodGet,
		endpoint: r.spec.Endpoint,
		route:    route,
		query:    query,
	})
	if err != nil {
		return zero, err
	}

	return Decode(body, r.spec.Schema)
}

// Paginated fetches one page of a list through the query cache.
type Paginated[T any] struct {
	pipeline *Pipeline
	spec     ReadSpec[T]
	op       string
}

// NewPaginatedRead creates a paginated read. Schema validates each item.
func NewPaginatedRead[T any](p *Pipeline, spec ReadSpec[T]) *Paginated[T] {
	return &Paginated[T]{
		pipeline: p,
		spec:     spec,
		op:       opName(http.MethodGet, spec.Endpoint),
	}
}

// PageDefaults are merged under the caller's query of every paginated read.
func PageDefaults() opsdesk.Params {
	return opsdesk.Params{
		constants.QueryParamPage:  constants.DefaultPage,
		constants.QueryParamLimit: constants.DefaultLimit,
	}
}

// EffectiveQuery returns query merged over the page defaults. A page or limit
// the caller leaves absent keeps its default.
func (r *Paginated[T]) EffectiveQuery(query opsdesk.Params) opsdesk.Params {
	effective := PageDefaults()

	for key, value := range query {
		if _, present := opsdesk.FormatScalar(value); !present {
			if _, defaulted := effective[key]; defaulted {
				continue
			}
		}

		effective[key] = value
	}

	return effective
}

// Key returns the cache key a call with route and query resolves to.
func (r *Paginated[T]) Key(route, query opsdesk.Params) opsdesk.CacheKey {
	return opsdesk.DeriveKey(r.spec.Name, r.spec.BaseKey, route, r.EffectiveQuery(query))
}

// Do returns the requested page. Each caller gets its own copy of the item
// slice, so sorting or editing it does not reach the cached page.
func (r *Paginated[T]) Do(ctx context.Context, route, query opsdesk.Params) (*opsdesk.Page[T], error) {
	effective := r.EffectiveQuery(query)
	key := opsdesk.DeriveKey(r.spec.Name, r.spec.BaseKey, route, effective)

	page, err := opsdesk.GetOrFetch(ctx, r.pipeline.cache, key, func(ctx context.Context) (*opsdesk.Page[T], error) {
		body, err := r.pipeline.send(ctx, call{
			method:   http.MethodGet,
			endpoint: r.spec.Endpoint,
			route:    route,
			query:    effective,
		})
		if err != nil {
			return nil, err
		}

		return DecodePage(body, r.spec.Schema)
	})
	if err != nil {
		return nil, r.pipeline.fail(r.op, err)
	}

	copied := *page
	copied.Data = slices.Clone(page.Data)

	return &copied, nil
}

// Refresh drops the cached page and reads it again.
func (r *Paginated[T]) Refresh(ctx context.Context, route, query opsdesk.Params) (*opsdesk.Page[T], error) {
	r.pipeline.cache.Invalidate(r.Key(route, query))

	return r.Do(ctx, route, query)
}

// Query returns a state handle for one consumer of this list.
func (r *Paginated[T]) Query() *Query[*opsdesk.Page[T]] {
	return newQuery(r.Key, r.Do)
}
