package commands

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func testItem(id string, quantity int) opsdesk.InventoryItem {
	return opsdesk.InventoryItem{
		Resource:     resource(id),
		SKU:          "GLV-" + id,
		Name:         "Safety gloves",
		Quantity:     quantity,
		Unit:         "pair",
		ReorderLevel: 10,
		FacilityID:   "f1",
	}
}

func TestStockLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "out", stockLevel(testItem("a", 0)))
	assert.Equal(t, "low", stockLevel(testItem("b", 10)))
	assert.Equal(t, "ok", stockLevel(testItem("c", 11)))
}

func TestInventoryList_FacilityFilter(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("GET /inventory/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "f1", r.URL.Query().Get("facility_id"))

		respondPage(w, []opsdesk.InventoryItem{testItem("i1", 0), testItem("i2", 50)}, 2, 1, 1)
	})

	out, err := execute(t, NewInventoryCommand(), "list", "--facility", "f1")
	require.NoError(t, err)
	assert.Contains(t, out, "GLV-i1")
	assert.Contains(t, out, "Showing 2 of 2 items (page 1 of 1)")
	assert.NotContains(t, out, "--page")
}

func TestInventoryCreate(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("POST /inventory/items", func(w http.ResponseWriter, r *http.Request) {
		var req opsdesk.InventoryItemRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "GLV-1", req.SKU)
		assert.Equal(t, 25, req.Quantity)
		assert.Equal(t, 5, req.ReorderLevel)

		item := testItem("i9", req.Quantity)
		item.Name = req.Name
		respond(w, http.StatusCreated, item)
	})

	out, err := execute(t, NewInventoryCommand(), "create",
		"--sku", "GLV-1", "--name", "Safety gloves", "--quantity", "25", "--reorder-level", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Created item 'Safety gloves' (i9)")

	_, err = execute(t, NewInventoryCommand(), "create", "--name", "No SKU", "--quantity", "-1")
	require.Error(t, err)
	assert.True(t, opsdesk.IsValidationError(err))
	assert.Equal(t, 1, backend.count("POST /inventory/items"))
}

func TestInventoryAdjust(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("PATCH /inventory/items/{id}/stock", func(w http.ResponseWriter, r *http.Request) {
		var adjustment opsdesk.StockAdjustment
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&adjustment))
		assert.Equal(t, opsdesk.StockAdjustment{Delta: -2, Reason: "damaged"}, adjustment)

		respond(w, http.StatusOK, nil)
	})

	out, err := execute(t, NewInventoryCommand(), "adjust", "--reason", "damaged", "i7", "--", "-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Adjusted stock of 'i7' by -2")

	_, err = execute(t, NewInventoryCommand(), "adjust", "i7", "lots")
	require.ErrorIs(t, err, constants.ErrInvalidQuantity)
	assert.Equal(t, 1, backend.count("PATCH /inventory/items/{id}/stock"))
}

func TestInventoryDelete_Force(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("DELETE /inventory/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, nil)
	})

	out, err := execute(t, NewInventoryCommand(), "delete", "i7", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted item 'i7'")
}
