package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NewTicketsCommand creates the tickets command group
func NewTicketsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket", "tk"},
		Short:   "Manage IT tickets",
		Long:    "Open, assign, discuss and close IT support tickets",
	}

	cmd.AddCommand(newTicketsListCommand())
	cmd.AddCommand(newTicketsGetCommand())
	cmd.AddCommand(newTicketsCreateCommand())
	cmd.AddCommand(newTicketsUpdateCommand())
	cmd.AddCommand(newTicketsAssignCommand())
	cmd.AddCommand(newTicketsStatusCommand())
	cmd.AddCommand(newTicketsCommentsCommand())
	cmd.AddCommand(newTicketsCommentCommand())
	cmd.AddCommand(newTicketsDeleteCommand())

	return cmd
}

func newTicketsListCommand() *cobra.Command {
	var (
		flags    listFlags
		status   string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			for key, value := range map[string]string{"status": status, "priority": priority} {
				if value == "" {
					continue
				}

				if opts.Filters == nil {
					opts.Filters = map[string]string{}
				}

				opts.Filters[key] = value
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			page, err := client.Tickets().List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list tickets: %w", err)
			}

			return renderPage(cmd, "tickets", page,
				[]string{"ID", "Subject", "Priority", "Status", "Assignee", "Comments", "Opened"},
				func(t opsdesk.Ticket) []string {
					return []string{t.ID, t.Subject, t.Priority, t.Status, assignee(t), strconv.Itoa(t.CommentCount), formatDate(t.CreatedAt)}
				})
		},
	}

	addListFlags(cmd, &flags)
	cmd.Flags().StringVar(&status, "status", "", "only tickets in this status")
	cmd.Flags().StringVar(&priority, "priority", "", "only tickets of this priority")

	return cmd
}

func assignee(t opsdesk.Ticket) string {
	if t.AssigneeID == nil {
		return "unassigned"
	}

	return *t.AssigneeID
}

func newTicketsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get TICKET_ID",
		Short: "Get ticket details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			ticket, err := client.Tickets().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get ticket: %w", err)
			}

			return renderDetail(cmd, ticket, [][]string{
				{"ID", ticket.ID},
				{"Subject", ticket.Subject},
				{"Description", valueOrNA(ticket.Description)},
				{"Priority", ticket.Priority},
				{"Status", ticket.Status},
				{"Category", valueOrNA(ticket.Category)},
				{"Requester", valueOrNA(ticket.RequesterID)},
				{"Assignee", assignee(*ticket)},
				{"Comments", strconv.Itoa(ticket.CommentCount)},
				{"Opened", formatDateTime(&ticket.CreatedAt)},
				{"Updated", formatDateTime(&ticket.UpdatedAt)},
			})
		},
	}
}

// ticketFlags are the editable fields of a ticket.
type ticketFlags struct {
	subject     string
	description string
	priority    string
	category    string
}

func (f *ticketFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
}

func (f *ticketFlags) apply(cmd *cobra.Command, req *opsdesk.TicketRequest) {
	changed := cmd.Flags().Changed

	if changed("subject") {
		req.Subject = f.subject
	}

	if changed("description") {
		req.Description = f.description
	}

	if changed("priority") {
		req.Priority = f.priority
	}

	if changed("category") {
		req.Category = f.category
	}
}

func newTicketsCreateCommand() *cobra.Command {
	var flags ticketFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &opsdesk.TicketRequest{}
			flags.apply(cmd, req)

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			ticket, err := client.Tickets().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create ticket: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Opened ticket %s: %s\n", ticket.ID, ticket.Subject)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newTicketsUpdateCommand() *cobra.Command {
	var flags ticketFlags

	cmd := &cobra.Command{
		Use:   "update TICKET_ID",
		Short: "Replace a ticket",
		Long:  "Replace a ticket with its current fields overlaid by the given flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			current, err := client.Tickets().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get ticket: %w", err)
			}

			req := &opsdesk.TicketRequest{
				Subject:     current.Subject,
				Description: current.Description,
				Priority:    current.Priority,
				Category:    current.Category,
			}
			flags.apply(cmd, req)

			ticket, err := client.Tickets().Update(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("failed to update ticket: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated ticket %s\n", ticket.ID)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newTicketsAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign TICKET_ID USER_ID",
		Short: "Assign a ticket",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Tickets().Assign(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to assign ticket: %w", err)
			}

			return renderResult(cmd, env, fmt.Sprintf("Assigned ticket %s to %s", args[0], args[1]))
		},
	}
}

func newTicketsStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status TICKET_ID STATUS",
		Short: "Move a ticket to another status",
		Long:  "Move a ticket to open, in_progress, resolved or closed",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Tickets().SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to change ticket status: %w", err)
			}

			return renderResult(cmd, env, fmt.Sprintf("Ticket %s is now %s", args[0], args[1]))
		},
	}
}

func newTicketsCommentsCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "comments TICKET_ID",
		Short: "List the comments of a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			page, err := client.Tickets().Comments(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("failed to list comments: %w", err)
			}

			return renderPage(cmd, "comments", page,
				[]string{"ID", "Author", "Posted", "Comment"},
				func(c opsdesk.TicketComment) []string {
					author := c.AuthorName
					if author == "" {
						author = valueOrNA(c.AuthorID)
					}

					return []string{c.ID, author, formatDateTime(&c.CreatedAt), wrapText(c.Body)}
				})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

const commentWidth = 60

// wrapText breaks long comment bodies so table rows stay readable.
func wrapText(text string) string {
	var (
		lines []string
		line  strings.Builder
	)

	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+len(word) >= commentWidth {
			lines = append(lines, line.String())
			line.Reset()
		}

		if line.Len() > 0 {
			line.WriteByte(' ')
		}

		line.WriteString(word)
	}

	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

func newTicketsCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "comment TICKET_ID TEXT",
		Short: "Add a comment to a ticket",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			comment, err := client.Tickets().AddComment(cmd.Context(), args[0], &opsdesk.TicketCommentRequest{Body: args[1]})
			if err != nil {
				return fmt.Errorf("failed to add comment: %w", err)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Added comment %s to ticket %s\n", comment.ID, args[0])

			table := tablewriter.NewWriter(w)
			table.Header("Author", "Comment")
			_ = table.Append([]string{valueOrNA(comment.AuthorName), wrapText(comment.Body)})

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func newTicketsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete TICKET_ID",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, fmt.Sprintf("Really delete ticket '%s'?", args[0]), force) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Tickets().Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete ticket: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted ticket '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}
