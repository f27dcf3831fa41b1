package client

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NameSession is the logical name of the signed-in user read.
const NameSession = "session"

// profileDocument describes the /auth/me payload. It is kept as JSON Schema
// so it can be shared with the dashboard front end.
var profileDocument = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"id", "email"},
	Properties: map[string]*jsonschema.Schema{
		"id":    {Type: "string", Pattern: `\S`},
		"name":  {Type: "string"},
		"email": {Type: "string", Pattern: `^[^@\s]+@[^@\s]+$`},
		"role":  {Type: "string"},
	},
}

// SessionClient implements opsdesk.SessionClient.
type SessionClient struct {
	pipeline *pipeline.Pipeline

	login *pipeline.Mutation[*opsdesk.LoginRequest, opsdesk.Session]
	me    *pipeline.Read[opsdesk.Profile]
}

// NewSessionClient creates a new session client.
func NewSessionClient(p *pipeline.Pipeline) *SessionClient {
	return &SessionClient{
		pipeline: p,
		login: pipeline.NewCreate(p, pipeline.MutationSpec[*opsdesk.LoginRequest, opsdesk.Session]{
			Endpoint:       "/auth/login",
			BodySchema:     opsdesk.StructSchema[*opsdesk.LoginRequest](),
			ResponseSchema: opsdesk.StructSchema[opsdesk.Session](),
		}),
		me: pipeline.NewRead(p, pipeline.ReadSpec[opsdesk.Profile]{
			Name:     NameSession,
			Endpoint: "/auth/me",
			Schema:   opsdesk.JSONSchema[opsdesk.Profile](profileDocument),
		}),
	}
}

// Login implements opsdesk.SessionClient.Login.
func (c *SessionClient) Login(ctx context.Context, req *opsdesk.LoginRequest) (*opsdesk.Session, error) {
	session, err := c.login.Do(ctx, req, nil, nil)
	if err != nil {
		return nil, err
	}

	invalidate(c.pipeline, NameSession)

	return &session, nil
}

// Me implements opsdesk.SessionClient.Me.
func (c *SessionClient) Me(ctx context.Context) (*opsdesk.Profile, error) {
	profile, err := c.me.Do(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}
