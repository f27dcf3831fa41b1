package client

import (
	"context"

	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NameHazardObservations is the logical name of every hazard read.
const NameHazardObservations = "hazard-observations"

// HazardsClient implements opsdesk.HazardsClient.
type HazardsClient struct {
	pipeline *pipeline.Pipeline

	list   *pipeline.Paginated[opsdesk.HazardObservation]
	get    *pipeline.Read[opsdesk.HazardObservation]
	report *pipeline.Mutation[*opsdesk.HazardReportRequest, opsdesk.HazardObservation]
	status *pipeline.PartialUpdate[*opsdesk.HazardStatusUpdate]
	delete *pipeline.Delete
}

// NewHazardsClient creates a new hazards client.
func NewHazardsClient(p *pipeline.Pipeline) *HazardsClient {
	schema := opsdesk.StructSchema[opsdesk.HazardObservation]()

	return &HazardsClient{
		pipeline: p,
		list: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.HazardObservation]{
			Name:     NameHazardObservations,
			Endpoint: "/hazard-observations",
			Schema:   schema,
		}),
		get: pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.HazardObservation]{
			Name:     NameHazardObservations,
			Endpoint: "/hazard-observations/:id",
			Schema:   schema,
		}),
		report: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.HazardReportRequest, opsdesk.HazardObservation]{
			Endpoint:       "/hazard-observations",
			BodySchema:     opsdesk.StructSchema[*opsdesk.HazardReportRequest](),
			ResponseSchema: schema,
			Multipart:      true,
		}),
		status: pipeline.NewPartialUpdate[*opsdesk.HazardStatusUpdate](p, pipeline.PatchSpec{Endpoint: "/hazard-observations/:id/status"}),
		delete: pipeline.NewDelete(p, pipeline.DeleteSpec{Endpoint: "/hazard-observations/:id"}),
	}
}

// List implements opsdesk.HazardsClient.List.
func (c *HazardsClient) List(ctx context.Context, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.HazardObservation], error) {
	return c.list.Do(ctx, nil, opts.Params())
}

// Get implements opsdesk.HazardsClient.Get.
func (c *HazardsClient) Get(ctx context.Context, id string) (*opsdesk.HazardObservation, error) {
	hazard, err := c.get.Do(ctx, byID(id), nil)
	if err != nil {
		return nil, err
	}

	return &hazard, nil
}

// Report implements opsdesk.HazardsClient.Report. Photos are sent as
// repeated file parts of one multipart request.
func (c *HazardsClient) Report(ctx context.Context, req *opsdesk.HazardReportRequest) (*opsdesk.HazardObservation, error) {
	hazard, err := c.report.Do(ctx, req, nil, nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameHazardObservations)

	return &hazard, nil
}

// UpdateStatus implements opsdesk.HazardsClient.UpdateStatus.
func (c *HazardsClient) UpdateStatus(ctx context.Context, id string, update *opsdesk.HazardStatusUpdate) (*opsdesk.RawEnvelope, error) {
	env, err := c.status.Do(ctx, update, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameHazardObservations)

	return env, nil
}

// Delete implements opsdesk.HazardsClient.Delete.
func (c *HazardsClient) Delete(ctx context.Context, id string) error {
	err := c.delete.Do(ctx, byID(id), nil)
	if err != nil {
		return err
	}

	invalidate(c.pipeline, NameHazardObservations)

	return nil
}
