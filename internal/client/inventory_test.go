package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func testItem(id string, quantity int) opsdesk.InventoryItem {
	return opsdesk.InventoryItem{
		Resource:     resource(id),
		SKU:          "GLV-001",
		Name:         "Safety gloves",
		Quantity:     quantity,
		Unit:         "pair",
		ReorderLevel: 10,
	}
}

func TestInventoryClient_ListAndGet(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("GET /inventory/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "gloves", r.URL.Query().Get("search"))

		respondPage(w, []opsdesk.InventoryItem{testItem("i1", 12)}, 51)
	})
	backend.handle("GET /inventory/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, testItem(r.PathValue("id"), 12))
	})

	inventory := backend.client(t).Inventory()

	page, err := inventory.List(context.Background(), &opsdesk.ListOptions{Page: 2, Limit: 50, Search: "gloves"})
	require.NoError(t, err)
	assert.Equal(t, 51, page.Meta.Total)
	assert.Equal(t, "GLV-001", page.Data[0].SKU)

	item, err := inventory.Get(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "i1", item.ID)
}

func TestInventoryClient_CreateAndUpdate(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("POST /inventory/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req opsdesk.InventoryItemRequest
		decodeJSON(t, r, &req)
		assert.Equal(t, "GLV-001", req.SKU)

		respond(w, http.StatusCreated, testItem("i7", req.Quantity))
	})
	backend.handle("PUT /inventory/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req opsdesk.InventoryItemRequest
		decodeJSON(t, r, &req)

		respond(w, http.StatusOK, testItem(r.PathValue("id"), req.Quantity))
	})

	inventory := backend.client(t).Inventory()
	req := &opsdesk.InventoryItemRequest{SKU: "GLV-001", Name: "Safety gloves", Quantity: 30}

	created, err := inventory.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 30, created.Quantity)

	req.Quantity = 25

	updated, err := inventory.Update(context.Background(), "i7", req)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Quantity)

	_, err = inventory.Create(context.Background(), &opsdesk.InventoryItemRequest{SKU: "X", Name: "Y", Quantity: -1})
	require.Error(t, err)
	assert.True(t, opsdesk.IsValidationError(err))
	assert.Equal(t, 1, backend.count("POST /inventory/items"))
}

func TestInventoryClient_AdjustStock(t *testing.T) {
	t.Parallel()

	var quantity atomic.Int64
	quantity.Store(12)

	backend := newFakeBackend(t)
	backend.handle("GET /inventory/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, testItem(r.PathValue("id"), int(quantity.Load())))
	})
	backend.handle("PATCH /inventory/items/{id}/stock", func(w http.ResponseWriter, r *http.Request) {
		var adjustment opsdesk.StockAdjustment
		decodeJSON(t, r, &adjustment)
		assert.Equal(t, "damaged", adjustment.Reason)

		respond(w, http.StatusOK, map[string]int64{"quantity": quantity.Add(int64(adjustment.Delta))})
	})

	ctx := context.Background()
	inventory := backend.client(t).Inventory()

	before, err := inventory.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 12, before.Quantity)

	env, err := inventory.AdjustStock(ctx, "i1", &opsdesk.StockAdjustment{Delta: -2, Reason: "damaged"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":10}`, string(env.Data))

	after, err := inventory.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 10, after.Quantity)
	assert.Equal(t, 2, backend.count("GET /inventory/items/{id}"))
}

func TestInventoryClient_Delete(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("DELETE /inventory/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, nil)
	})

	require.NoError(t, backend.client(t).Inventory().Delete(context.Background(), "i1"))
	assert.Equal(t, 1, backend.count("DELETE /inventory/items/{id}"))
}
