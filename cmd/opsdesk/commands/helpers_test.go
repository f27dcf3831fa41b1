package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// useTempConfig points the CLI at an empty config file for the duration of the test.
func useTempConfig(t *testing.T) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yml")
	viper.Set("config", path)

	return path
}

// execute runs cmd with args and returns everything it printed.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	return executeWithInput(t, cmd, "", args...)
}

func executeWithInput(t *testing.T, cmd *cobra.Command, input string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

// fakeBackend is an opsdesk backend registered in the config as "test".
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

// signIn stores the backend with token as the current API.
func (b *fakeBackend) signIn(t *testing.T, token string) {
	t.Helper()

	require.NoError(t, saveConfigStruct(&Config{
		CurrentAPI: "test",
		APIs: map[string]*APIConfig{
			"test": {Endpoint: b.server.URL, Token: token, Username: "ada@example.com"},
		},
	}))
}

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

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	message := ""
	if status >= http.StatusBadRequest {
		message = http.StatusText(status)
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < http.StatusBadRequest,
		"message": message,
		"data":    data,
	})
}

func respondPage(w http.ResponseWriter, items interface{}, total, current, last int) {
	encoded, _ := json.Marshal(items)

	var raw []json.RawMessage
	_ = json.Unmarshal(encoded, &raw)

	meta := opsdesk.PageMeta{
		Total:       total,
		PerPage:     len(raw),
		CurrentPage: &current,
		LastPage:    last,
		FirstPage:   1,
	}

	if current < last {
		next := "/next"
		meta.NextPageURL = &next
	}

	respond(w, http.StatusOK, opsdesk.Page[json.RawMessage]{Data: raw, Meta: meta})
}

var fixedTime = time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)

func resource(id string) opsdesk.Resource {
	return opsdesk.Resource{ID: id, CreatedAt: fixedTime, UpdatedAt: fixedTime}
}
