package client

import (
	"context"

	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NameAttendance is the logical name of every attendance read.
const NameAttendance = "attendance"

// AttendanceClient implements opsdesk.AttendanceClient.
type AttendanceClient struct {
	pipeline *pipeline.Pipeline

	list        *pipeline.Paginated[opsdesk.AttendanceRecord]
	forEmployee *pipeline.Paginated[opsdesk.AttendanceRecord]
	get         *pipeline.Read[opsdesk.AttendanceRecord]
	clockIn     *pipeline.Mutation[*opsdesk.ClockInRequest, opsdesk.AttendanceRecord]
	clockOut    *pipeline.PartialUpdate[*opsdesk.ClockOutRequest]
}

// NewAttendanceClient creates a new attendance client.
func NewAttendanceClient(p *pipeline.Pipeline) *AttendanceClient {
	schema := opsdesk.StructSchema[opsdesk.AttendanceRecord]()

	return &AttendanceClient{
		pipeline: p,
		list: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.AttendanceRecord]{
			Name:     NameAttendance,
			Endpoint: "/attendance",
			Schema:   schema,
		}),
		forEmployee: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.AttendanceRecord]{
			Name:     NameAttendance,
			Endpoint: "/employees/:employeeId/attendance",
			Schema:   schema,
		}),
		get: pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.AttendanceRecord]{
			Name:     NameAttendance,
			Endpoint: "/attendance/:id",
			Schema:   schema,
		}),
		clockIn: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.ClockInRequest, opsdesk.AttendanceRecord]{
			Endpoint:       "/attendance/clock-in",
			BodySchema:     opsdesk.StructSchema[*opsdesk.ClockInRequest](),
			ResponseSchema: schema,
		}),
		clockOut: pipeline.NewPartialUpdate[*opsdesk.ClockOutRequest](p, pipeline.PatchSpec{Endpoint: "/attendance/:id/clock-out"}),
	}
}

// List implements opsdesk.AttendanceClient.List.
func (c *AttendanceClient) List(ctx context.Context, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.AttendanceRecord], error) {
	return c.list.Do(ctx, nil, opts.Params())
}

// ListForEmployee implements opsdesk.AttendanceClient.ListForEmployee.
func (c *AttendanceClient) ListForEmployee(ctx context.Context, employeeID string, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.AttendanceRecord], error) {
	return c.forEmployee.Do(ctx, opsdesk.Params{"employeeId": employeeID}, opts.Params())
}

// Get implements opsdesk.AttendanceClient.Get.
func (c *AttendanceClient) Get(ctx context.Context, id string) (*opsdesk.AttendanceRecord, error) {
	record, err := c.get.Do(ctx, byID(id), nil)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// ClockIn implements opsdesk.AttendanceClient.ClockIn.
func (c *AttendanceClient) ClockIn(ctx context.Context, req *opsdesk.ClockInRequest) (*opsdesk.AttendanceRecord, error) {
	record, err := c.clockIn.Do(ctx, req, nil, nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameAttendance)

	return &record, nil
}

// ClockOut implements opsdesk.AttendanceClient.ClockOut. A nil request sends
// no notes.
func (c *AttendanceClient) ClockOut(ctx context.Context, id string, req *opsdesk.ClockOutRequest) (*opsdesk.RawEnvelope, error) {
	if req == nil {
		req = &opsdesk.ClockOutRequest{}
	}

	env, err := c.clockOut.Do(ctx, req, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameAttendance)

	return env, nil
}
