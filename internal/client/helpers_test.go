package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// fakeBackend serves registered routes and counts the hits per pattern.
type fakeBackend struct {
	mux    *http.ServeMux
	server *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	backend := &fakeBackend{mux: http.NewServeMux(), hits: make(map[string]int)}
	backend.server = httptest.NewServer(backend.mux)
	t.Cleanup(backend.server.Close)

	return backend
}

// handle registers handler for a net/http pattern such as "GET /facilities/{id}".
func (b *fakeBackend) handle(pattern string, handler http.HandlerFunc) {
	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[pattern]++
		b.mu.Unlock()

		handler(w, r)
	})
}

func (b *fakeBackend) count(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.hits[pattern]
}

func (b *fakeBackend) client(t *testing.T) *Client {
	t.Helper()

	return b.clientWith(t, &opsdesk.Config{})
}

func (b *fakeBackend) clientWith(t *testing.T, config *opsdesk.Config) *Client {
	t.Helper()

	config.APIEndpoint = b.server.URL

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	return client
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < http.StatusBadRequest,
		"message": http.StatusText(status),
		"data":    data,
	})
}

func respondPage(w http.ResponseWriter, items interface{}, total int) {
	current := 1

	respond(w, http.StatusOK, opsdesk.Page[json.RawMessage]{
		Data: mustRaw(items),
		Meta: opsdesk.PageMeta{
			Total:       total,
			PerPage:     25,
			CurrentPage: &current,
			LastPage:    1,
			FirstPage:   1,
		},
	})
}

func mustRaw(items interface{}) []json.RawMessage {
	encoded, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}

	var raw []json.RawMessage

	err = json.Unmarshal(encoded, &raw)
	if err != nil {
		panic(err)
	}

	return raw
}

func decodeJSON(t *testing.T, r *http.Request, target interface{}) {
	t.Helper()

	require.NoError(t, json.NewDecoder(r.Body).Decode(target))
}

var fixedTime = time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)

func resource(id string) opsdesk.Resource {
	return opsdesk.Resource{ID: id, CreatedAt: fixedTime, UpdatedAt: fixedTime}
}
