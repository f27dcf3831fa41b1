package client

import (
	"context"

	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NameFacilities is the logical name of every facility read.
const NameFacilities = "facilities"

// FacilitiesClient implements opsdesk.FacilitiesClient.
type FacilitiesClient struct {
	pipeline *pipeline.Pipeline

	list   *pipeline.Paginated[opsdesk.Facility]
	get    *pipeline.Read[opsdesk.Facility]
	create *pipeline.Mutation[*opsdesk.FacilityRequest, opsdesk.Facility]
	update *pipeline.Mutation[*opsdesk.FacilityRequest, opsdesk.Facility]
	patch  *pipeline.PartialUpdate[map[string]any]
	delete *pipeline.Delete
}

// NewFacilitiesClient creates a new facilities client.
func NewFacilitiesClient(p *pipeline.Pipeline) *FacilitiesClient {
	schema := opsdesk.StructSchema[opsdesk.Facility]()
	body := opsdesk.StructSchema[*opsdesk.FacilityRequest]()

	return &FacilitiesClient{
		pipeline: p,
		list: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.Facility]{
			Name:     NameFacilities,
			Endpoint: "/facilities",
			Schema:   schema,
		}),
		get: pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.Facility]{
			Name:     NameFacilities,
			Endpoint: "/facilities/:id",
			Schema:   schema,
		}),
		create: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.FacilityRequest, opsdesk.Facility]{
			Endpoint:       "/facilities",
			BodySchema:     body,
			ResponseSchema: schema,
			Multipart:      true,
		}),
		update: pipeline.NewReplace(p, pipeline.MutationSpec[*opsdesk.FacilityRequest, opsdesk.Facility]{
			Endpoint:       "/facilities/:id",
			BodySchema:     body,
			ResponseSchema: schema,
			Multipart:      true,
		}),
		patch:  pipeline.NewPartialUpdate[map[string]any](p, pipeline.PatchSpec{Endpoint: "/facilities/:id"}),
		delete: pipeline.NewDelete(p, pipeline.DeleteSpec{Endpoint: "/facilities/:id"}),
	}
}

// List implements opsdesk.FacilitiesClient.List.
func (c *FacilitiesClient) List(ctx context.Context, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.Facility], error) {
	return c.list.Do(ctx, nil, opts.Params())
}

// Get implements opsdesk.FacilitiesClient.Get.
func (c *FacilitiesClient) Get(ctx context.Context, id string) (*opsdesk.Facility, error) {
	facility, err := c.get.Do(ctx, byID(id), nil)
	if err != nil {
		return nil, err
	}

	return &facility, nil
}

// Create implements opsdesk.FacilitiesClient.Create. The photo, when set,
// is uploaded in the same multipart request.
func (c *FacilitiesClient) Create(ctx context.Context, req *opsdesk.FacilityRequest) (*opsdesk.Facility, error) {
	facility, err := c.create.Do(ctx, req, nil, nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameFacilities)

	return &facility, nil
}

// Update implements opsdesk.FacilitiesClient.Update.
func (c *FacilitiesClient) Update(ctx context.Context, id string, req *opsdesk.FacilityRequest) (*opsdesk.Facility, error) {
	facility, err := c.update.Do(ctx, req, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameFacilities)

	return &facility, nil
}

// Patch implements opsdesk.FacilitiesClient.Patch.
func (c *FacilitiesClient) Patch(ctx context.Context, id string, fields map[string]any) (*opsdesk.RawEnvelope, error) {
	env, err := c.patch.Do(ctx, fields, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameFacilities)

	return env, nil
}

// Delete implements opsdesk.FacilitiesClient.Delete.
func (c *FacilitiesClient) Delete(ctx context.Context, id string) error {
	err := c.delete.Do(ctx, byID(id), nil)
	if err != nil {
		return err
	}

	invalidate(c.pipeline, NameFacilities)

	return nil
}

// ListQuery returns a state handle over facility pages for one consumer.
func (c *FacilitiesClient) ListQuery() *pipeline.Query[*opsdesk.Page[opsdesk.Facility]] {
	return c.list.Query()
}
