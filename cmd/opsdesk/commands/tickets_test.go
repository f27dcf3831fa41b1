package commands

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func testTicket(id string) opsdesk.Ticket {
	return opsdesk.Ticket{
		Resource: resource(id),
		Subject:  "Printer jams on floor 2",
		Priority: opsdesk.PriorityMedium,
		Status:   opsdesk.TicketStatusOpen,
	}
}

func TestAssignee(t *testing.T) {
	t.Parallel()

	ticket := testTicket("t1")
	assert.Equal(t, "unassigned", assignee(ticket))

	user := "u7"
	ticket.AssigneeID = &user
	assert.Equal(t, "u7", assignee(ticket))
}

func TestTicketsList(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("GET /tickets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "urgent", r.URL.Query().Get("priority"))
		assert.Equal(t, "3", r.URL.Query().Get("page"))

		respondPage(w, []opsdesk.Ticket{testTicket("t1")}, 51, 3, 3)
	})

	out, err := execute(t, NewTicketsCommand(), "list", "--priority", "urgent", "--page", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Printer jams on floor 2")
	assert.Contains(t, out, "unassigned")
	assert.Contains(t, out, "Showing 1 of 51 tickets (page 3 of 3)")
}

func TestTicketsCreate(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("POST /tickets", func(w http.ResponseWriter, r *http.Request) {
		var req opsdesk.TicketRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, opsdesk.TicketRequest{Subject: "Printer jams on floor 2", Priority: "medium"}, req)

		respond(w, http.StatusCreated, testTicket("t9"))
	})

	out, err := execute(t, NewTicketsCommand(), "create", "--subject", "Printer jams on floor 2", "--priority", "medium")
	require.NoError(t, err)
	assert.Contains(t, out, "Opened ticket t9: Printer jams on floor 2")

	_, err = execute(t, NewTicketsCommand(), "create", "--subject", "No priority")
	require.Error(t, err)
	assert.Equal(t, []string{"priority"}, fieldPaths(err))
	assert.Equal(t, 1, backend.count("POST /tickets"))
}

func TestTicketsAssignAndStatus(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("PATCH /tickets/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"assignee_id":"u7"}`, string(body))

		respond(w, http.StatusOK, nil)
	})
	backend.handle("PATCH /tickets/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"in_progress"}`, string(body))

		respond(w, http.StatusOK, nil)
	})

	out, err := execute(t, NewTicketsCommand(), "assign", "t1", "u7")
	require.NoError(t, err)
	assert.Contains(t, out, "Assigned ticket t1 to u7")

	out, err = execute(t, NewTicketsCommand(), "status", "t1", "in_progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Ticket t1 is now in_progress")
}

func TestTicketsComments(t *testing.T) {
	useTempConfig(t)

	comment := opsdesk.TicketComment{
		Resource:   resource("c1"),
		TicketID:   "t1",
		AuthorName: "Ada",
		Body:       "Replaced the toner",
	}

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handle("GET /tickets/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "t1", r.PathValue("id"))

		respondPage(w, []opsdesk.TicketComment{comment}, 1, 1, 1)
	})
	backend.handle("POST /tickets/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		var req opsdesk.TicketCommentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		added := comment
		added.ID = "c2"
		added.Body = req.Body
		respond(w, http.StatusCreated, added)
	})

	out, err := execute(t, NewTicketsCommand(), "comments", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "Replaced the toner")

	out, err = execute(t, NewTicketsCommand(), "comment", "t1", "Still jamming")
	require.NoError(t, err)
	assert.Contains(t, out, "Added comment c2 to ticket t1")
	assert.Contains(t, out, "Still jamming")
}
