package pipeline_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	opshttp "github.com/fivetwenty-io/opsdesk/internal/http"
	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// backend is an httptest server that counts the requests it receives.
type backend struct {
	server *httptest.Server
	hits   atomic.Int32
}

func newBackend(t *testing.T, handler http.HandlerFunc) (*pipeline.Pipeline, *backend) {
	t.Helper()

	b := &backend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		b.hits.Add(1)
		handler(writer, request)
	}))
	t.Cleanup(b.server.Close)

	cache, err := opsdesk.NewQueryCache(opsdesk.DefaultQueryCacheConfig(), nil)
	require.NoError(t, err)

	return pipeline.New(opshttp.NewClient(b.server.URL, nil), cache, nil), b
}

func (b *backend) calls() int {
	return int(b.hits.Load())
}

func writeEnvelope(writer http.ResponseWriter, status int, data interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	_ = json.NewEncoder(writer).Encode(map[string]interface{}{
		"success": status < http.StatusBadRequest,
		"message": http.StatusText(status),
		"data":    data,
	})
}

func envelopeBody(t *testing.T, data interface{}) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "ok",
		"data":    data,
	})
	require.NoError(t, err)

	return body
}

func pageOf(items interface{}, total int) map[string]interface{} {
	return map[string]interface{}{
		"data": items,
		"meta": map[string]interface{}{
			"total":           total,
			"perPage":         25,
			"currentPage":     1,
			"lastPage":        1,
			"firstPage":       1,
			"firstPageUrl":    "/?page=1",
			"lastPageUrl":     "/?page=1",
			"nextPageUrl":     nil,
			"previousPageUrl": nil,
		},
	}
}

func facility(id, name string) opsdesk.Facility {
	return opsdesk.Facility{
		Resource:     opsdesk.Resource{ID: id},
		Name:         name,
		LocationName: "North Yard",
		Capacity:     40,
		Status:       opsdesk.FacilityStatusActive,
	}
}
