package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NewHazardsCommand creates the hazards command group
func NewHazardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hazards",
		Aliases: []string{"hazard", "hz"},
		Short:   "Manage hazard observations",
		Long:    "Report safety hazards and follow them until they are closed",
	}

	cmd.AddCommand(newHazardsListCommand())
	cmd.AddCommand(newHazardsGetCommand())
	cmd.AddCommand(newHazardsReportCommand())
	cmd.AddCommand(newHazardsStatusCommand())
	cmd.AddCommand(newHazardsDeleteCommand())

	return cmd
}

func newHazardsListCommand() *cobra.Command {
	var (
		flags    listFlags
		severity string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hazard observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			for key, value := range map[string]string{"severity": severity, "status": status} {
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

			page, err := client.Hazards().List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list hazards: %w", err)
			}

			return renderPage(cmd, "hazards", page,
				[]string{"ID", "Title", "Severity", "Status", "Facility", "Photos", "Reported"},
				func(h opsdesk.HazardObservation) []string {
					return []string{h.ID, h.Title, h.Severity, h.Status, valueOrNA(h.FacilityID), strconv.Itoa(len(h.PhotoURLs)), formatDate(h.CreatedAt)}
				})
		},
	}

	addListFlags(cmd, &flags)
	cmd.Flags().StringVar(&severity, "severity", "", "only hazards of this severity")
	cmd.Flags().StringVar(&status, "status", "", "only hazards in this status")

	return cmd
}

func newHazardsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get HAZARD_ID",
		Short: "Get hazard observation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			hazard, err := client.Hazards().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get hazard: %w", err)
			}

			rows := [][]string{
				{"ID", hazard.ID},
				{"Title", hazard.Title},
				{"Description", valueOrNA(hazard.Description)},
				{"Severity", hazard.Severity},
				{"Status", hazard.Status},
				{"Facility", valueOrNA(hazard.FacilityID)},
				{"Reported By", valueOrNA(hazard.ReportedBy)},
				{"Observed", formatDateTime(hazard.ObservedAt)},
				{"Reported", formatDateTime(&hazard.CreatedAt)},
			}

			if len(hazard.PhotoURLs) > 0 {
				rows = append(rows, []string{"Photos", strings.Join(hazard.PhotoURLs, "\n")})
			}

			return renderDetail(cmd, hazard, rows)
		},
	}
}

func newHazardsReportCommand() *cobra.Command {
	var (
		req        opsdesk.HazardReportRequest
		observedAt string
		photos     []string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a hazard",
		Example: `  opsdesk hazards report --title "Oil spill near dock 3" --severity high \
    --facility f-12 --photo spill.jpg --photo overview.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if observedAt != "" {
				observed, err := time.Parse(time.RFC3339, observedAt)
				if err != nil {
					return fmt.Errorf("%w: --observed-at must be RFC 3339, e.g. 2024-05-01T14:30:00Z", ErrInvalidValue)
				}

				req.ObservedAt = &observed
			}

			for _, path := range photos {
				photo, err := readUpload(path)
				if err != nil {
					return err
				}

				req.Photos = append(req.Photos, photo)
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			hazard, err := client.Hazards().Report(cmd.Context(), &req)
			if err != nil {
				return fmt.Errorf("failed to report hazard: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reported hazard '%s' (%s) with %d photo(s)\n",
				hazard.Title, hazard.ID, len(req.Photos))

			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "short title")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().StringVar(&req.Severity, "severity", "", "severity (low, medium, high, critical)")
	cmd.Flags().StringVar(&req.FacilityID, "facility", "", "facility ID")
	cmd.Flags().StringVar(&observedAt, "observed-at", "", "when the hazard was observed (RFC 3339)")
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "path of a photo to attach (repeatable)")

	return cmd
}

func newHazardsStatusCommand() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "status HAZARD_ID STATUS",
		Short: "Move a hazard to another status",
		Long:  "Move a hazard to open, investigating, resolved or closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			update := &opsdesk.HazardStatusUpdate{Status: args[1], ResolutionNotes: notes}

			env, err := client.Hazards().UpdateStatus(cmd.Context(), args[0], update)
			if err != nil {
				return fmt.Errorf("failed to update hazard status: %w", err)
			}

			return renderResult(cmd, env, fmt.Sprintf("Hazard '%s' is now %s", args[0], args[1]))
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")

	return cmd
}

func newHazardsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete HAZARD_ID",
		Short: "Delete a hazard observation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, fmt.Sprintf("Really delete hazard '%s'?", args[0]), force) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Hazards().Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete hazard: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted hazard '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}
