// Package pipeline turns endpoint templates and schemas into typed,
// cache-coherent operations over the opsdesk REST backend.
//
// A Pipeline bundles the transport, the query cache and a logger. It is
// created once and handed to every factory:
//
//	p := pipeline.New(transport, queryCache, logger)
//	getFacility := pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.Facility]{
//		Name:     "facilities",
//		Endpoint: "/facilities/:id",
//		Schema:   opsdesk.StructSchema[opsdesk.Facility](),
//	})
//	facility, err := getFacility.Do(ctx, opsdesk.Params{"id": id}, nil)
//
// Operations are safe for concurrent use. Every error they return is an
// *opsdesk.Error.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	opshttp "github.com/fivetwenty-io/opsdesk/internal/http"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Transport performs one HTTP exchange. *opshttp.Client implements it.
type Transport interface {
	Do(ctx context.Context, req *opshttp.Request) (*opshttp.Response, error)
}

// Pipeline is the shared execution layer of every operation.
type Pipeline struct {
	transport Transport
	cache     *opsdesk.QueryCache
	logger    opsdesk.Logger
}

// New creates a pipeline. A nil logger discards log output.
func New(transport Transport, cache *opsdesk.QueryCache, logger opsdesk.Logger) *Pipeline {
	if logger == nil {
		logger = opsdesk.NopLogger{}
	}

	return &Pipeline{
		transport: transport,
		cache:     cache,
		logger:    logger,
	}
}

// Cache returns the query cache reads go through.
func (p *Pipeline) Cache() *opsdesk.QueryCache {
	return p.cache
}

// Logger returns the pipeline logger.
func (p *Pipeline) Logger() opsdesk.Logger {
	return p.logger
}

// call describes one request before the URL is built.
type call struct {
	method    string
	endpoint  string
	route     opsdesk.Params
	query     opsdesk.Params
	body      interface{}
	multipart bool
}

// send resolves the endpoint, performs the request and returns the raw body.
// Unresolved placeholders fail before anything is sent.
func (p *Pipeline) send(ctx context.Context, c call) ([]byte, error) {
	missing := opsdesk.MissingPlaceholders(c.endpoint, c.route)
	if len(missing) > 0 {
		fields := make([]opsdesk.FieldError, 0, len(missing))
		for _, name := range missing {
			fields = append(fields, opsdesk.FieldError{Path: name, Message: opsdesk.ErrUnresolvedRoute.Error()})
		}

		return nil, &opsdesk.ValidationError{Fields: fields}
	}

	resp, err := p.transport.Do(ctx, &opshttp.Request{
		Method:    c.method,
		Path:      opsdesk.BuildURL(c.endpoint, c.route, c.query),
		Body:      c.body,
		Multipart: c.multipart,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// fail normalizes err for op and logs decode failures, which point at a
// contract mismatch with the backend rather than a user mistake.
func (p *Pipeline) fail(op string, err error) error {
	normalized := opsdesk.NormalizeOp(op, err)

	if opsdesk.IsDecodeError(normalized) {
		p.logger.Warn("Response failed to decode", map[string]interface{}{
			"op":     op,
			"fields": fieldPaths(opsdesk.FieldErrors(normalized)),
			"error":  normalized,
		})
	}

	return normalized
}

func opName(method, endpoint string) string {
	return fmt.Sprintf("%s %s", method, endpoint)
}

func fieldPaths(fields []opsdesk.FieldError) string {
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		paths = append(paths, f.Path)
	}

	return strings.Join(paths, ",")
}
