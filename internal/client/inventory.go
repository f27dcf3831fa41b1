package client

import (
	"context"

	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NameInventoryItems is the logical name of every inventory read.
const NameInventoryItems = "inventory-items"

// InventoryClient implements opsdesk.InventoryClient.
type InventoryClient struct {
	pipeline *pipeline.Pipeline

	list   *pipeline.Paginated[opsdesk.InventoryItem]
	get    *pipeline.Read[opsdesk.InventoryItem]
	create *pipeline.Mutation[*opsdesk.InventoryItemRequest, opsdesk.InventoryItem]
	update *pipeline.Mutation[*opsdesk.InventoryItemRequest, opsdesk.InventoryItem]
	adjust *pipeline.PartialUpdate[*opsdesk.StockAdjustment]
	delete *pipeline.Delete
}

// NewInventoryClient creates a new inventory client.
func NewInventoryClient(p *pipeline.Pipeline) *InventoryClient {
	schema := opsdesk.StructSchema[opsdesk.InventoryItem]()
	body := opsdesk.StructSchema[*opsdesk.InventoryItemRequest]()

	return &InventoryClient{
		pipeline: p,
		list: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.InventoryItem]{
			Name:     NameInventoryItems,
			Endpoint: "/inventory/items",
			Schema:   schema,
		}),
		get: pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.InventoryItem]{
			Name:     NameInventoryItems,
			Endpoint: "/inventory/items/:id",
			Schema:   schema,
		}),
		create: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.InventoryItemRequest, opsdesk.InventoryItem]{
			Endpoint:       "/inventory/items",
			BodySchema:     body,
			ResponseSchema: schema,
		}),
		update: pipeline.NewReplace(p, pipeline.MutationSpec[*opsdesk.InventoryItemRequest, opsdesk.InventoryItem]{
			Endpoint:       "/inventory/items/:id",
			BodySchema:     body,
			ResponseSchema: schema,
		}),
		adjust: pipeline.NewPartialUpdate[*opsdesk.StockAdjustment](p, pipeline.PatchSpec{Endpoint: "/inventory/items/:id/stock"}),
		delete: pipeline.NewDelete(p, pipeline.DeleteSpec{Endpoint: "/inventory/items/:id"}),
	}
}

// List implements opsdesk.InventoryClient.List.
func (c *InventoryClient) List(ctx context.Context, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.InventoryItem], error) {
	return c.list.Do(ctx, nil, opts.Params())
}

// Get implements opsdesk.InventoryClient.Get.
func (c *InventoryClient) Get(ctx context.Context, id string) (*opsdesk.InventoryItem, error) {
	item, err := c.get.Do(ctx, byID(id), nil)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// Create implements opsdesk.InventoryClient.Create.
func (c *InventoryClient) Create(ctx context.Context, req *opsdesk.InventoryItemRequest) (*opsdesk.InventoryItem, error) {
	item, err := c.create.Do(ctx, req, nil, nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameInventoryItems)

	return &item, nil
}

// Update implements opsdesk.InventoryClient.Update.
func (c *InventoryClient) Update(ctx context.Context, id string, req *opsdesk.InventoryItemRequest) (*opsdesk.InventoryItem, error) {
	item, err := c.update.Do(ctx, req, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameInventoryItems)

	return &item, nil
}

// AdjustStock implements opsdesk.InventoryClient.AdjustStock.
func (c *InventoryClient) AdjustStock(ctx context.Context, id string, adjustment *opsdesk.StockAdjustment) (*opsdesk.RawEnvelope, error) {
	env, err := c.adjust.Do(ctx, adjustment, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameInventoryItems)

	return env, nil
}

// Delete implements opsdesk.InventoryClient.Delete.
func (c *InventoryClient) Delete(ctx context.Context, id string) error {
	err := c.delete.Do(ctx, byID(id), nil)
	if err != nil {
		return err
	}

	invalidate(c.pipeline, NameInventoryItems)

	return nil
}
