package client

import (
	"context"

	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Logical names of ticket reads.
const (
	NameTickets        = "tickets"
	NameTicketComments = "ticket-comments"
)

type ticketAssignment struct {
	AssigneeID string `json:"assignee_id"`
}

type ticketStatus struct {
	Status string `json:"status"`
}

// TicketsClient implements opsdesk.TicketsClient.
type TicketsClient struct {
	pipeline *pipeline.Pipeline

	list       *pipeline.Paginated[opsdesk.Ticket]
	get        *pipeline.Read[opsdesk.Ticket]
	create     *pipeline.Mutation[*opsdesk.TicketRequest, opsdesk.Ticket]
	update     *pipeline.Mutation[*opsdesk.TicketRequest, opsdesk.Ticket]
	assign     *pipeline.PartialUpdate[ticketAssignment]
	status     *pipeline.PartialUpdate[ticketStatus]
	comments   *pipeline.Paginated[opsdesk.TicketComment]
	addComment *pipeline.Mutation[*opsdesk.TicketCommentRequest, opsdesk.TicketComment]
	delete     *pipeline.Delete
}

// NewTicketsClient creates a new tickets client.
func NewTicketsClient(p *pipeline.Pipeline) *TicketsClient {
	schema := opsdesk.StructSchema[opsdesk.Ticket]()
	body := opsdesk.StructSchema[*opsdesk.TicketRequest]()

	return &TicketsClient{
		pipeline: p,
		list: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.Ticket]{
			Name:     NameTickets,
			Endpoint: "/tickets",
			Schema:   schema,
		}),
		get: pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.Ticket]{
			Name:     NameTickets,
			Endpoint: "/tickets/:id",
			Schema:   schema,
		}),
		create: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.TicketRequest, opsdesk.Ticket]{
			Endpoint:       "/tickets",
			BodySchema:     body,
			ResponseSchema: schema,
		}),
		update: pipeline.NewReplace(p, pipeline.MutationSpec[*opsdesk.TicketRequest, opsdesk.Ticket]{
			Endpoint:       "/tickets/:id",
			BodySchema:     body,
			ResponseSchema: schema,
		}),
		assign: pipeline.NewPartialUpdate[ticketAssignment](p, pipeline.PatchSpec{Endpoint: "/tickets/:id/assign"}),
		status: pipeline.NewPartialUpdate[ticketStatus](p, pipeline.PatchSpec{Endpoint: "/tickets/:id/status"}),
		comments: pipeline.NewPaginatedRead(p, pipeline.ReadSpec[opsdesk.TicketComment]{
			Name:     NameTicketComments,
			Endpoint: "/tickets/:id/comments",
			Schema:   opsdesk.StructSchema[opsdesk.TicketComment](),
		}),
		addComment: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.TicketCommentRequest, opsdesk.TicketComment]{
			Endpoint:       "/tickets/:id/comments",
			BodySchema:     opsdesk.StructSchema[*opsdesk.TicketCommentRequest](),
			ResponseSchema: opsdesk.StructSchema[opsdesk.TicketComment](),
		}),
		delete: pipeline.NewDelete(p, pipeline.DeleteSpec{Endpoint: "/tickets/:id"}),
	}
}

// List implements opsdesk.TicketsClient.List.
func (c *TicketsClient) List(ctx context.Context, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.Ticket], error) {
	return c.list.Do(ctx, nil, opts.Params())
}

// Get implements opsdesk.TicketsClient.Get.
func (c *TicketsClient) Get(ctx context.Context, id string) (*opsdesk.Ticket, error) {
	ticket, err := c.get.Do(ctx, byID(id), nil)
	if err != nil {
		return nil, err
	}

	return &ticket, nil
}

// Create implements opsdesk.TicketsClient.Create.
func (c *TicketsClient) Create(ctx context.Context, req *opsdesk.TicketRequest) (*opsdesk.Ticket, error) {
	ticket, err := c.create.Do(ctx, req, nil, nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameTickets)

	return &ticket, nil
}

// Update implements opsdesk.TicketsClient.Update.
func (c *TicketsClient) Update(ctx context.Context, id string, req *opsdesk.TicketRequest) (*opsdesk.Ticket, error) {
	ticket, err := c.update.Do(ctx, req, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameTickets)

	return &ticket, nil
}

// Assign implements opsdesk.TicketsClient.Assign.
func (c *TicketsClient) Assign(ctx context.Context, id, assigneeID string) (*opsdesk.RawEnvelope, error) {
	env, err := c.assign.Do(ctx, ticketAssignment{AssigneeID: assigneeID}, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameTickets)

	return env, nil
}

// SetStatus implements opsdesk.TicketsClient.SetStatus.
func (c *TicketsClient) SetStatus(ctx context.Context, id, status string) (*opsdesk.RawEnvelope, error) {
	env, err := c.status.Do(ctx, ticketStatus{Status: status}, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameTickets)

	return env, nil
}

// Comments implements opsdesk.TicketsClient.Comments.
func (c *TicketsClient) Comments(ctx context.Context, id string, opts *opsdesk.ListOptions) (*opsdesk.Page[opsdesk.TicketComment], error) {
	return c.comments.Do(ctx, byID(id), opts.Params())
}

// AddComment implements opsdesk.TicketsClient.AddComment. The ticket itself
// goes stale too since it carries the comment count.
func (c *TicketsClient) AddComment(ctx context.Context, id string, req *opsdesk.TicketCommentRequest) (*opsdesk.TicketComment, error) {
	comment, err := c.addComment.Do(ctx, req, byID(id), nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameTicketComments, NameTickets)

	return &comment, nil
}

// Delete implements opsdesk.TicketsClient.Delete.
func (c *TicketsClient) Delete(ctx context.Context, id string) error {
	err := c.delete.Do(ctx, byID(id), nil)
	if err != nil {
		return err
	}

	invalidate(c.pipeline, NameTickets, NameTicketComments)

	return nil
}
