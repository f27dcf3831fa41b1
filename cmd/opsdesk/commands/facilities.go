package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NewFacilitiesCommand creates the facilities command group
func NewFacilitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "facilities",
		Aliases: []string{"facility", "fac"},
		Short:   "Manage facilities",
		Long:    "List, inspect, create, update and delete facilities",
	}

	cmd.AddCommand(newFacilitiesListCommand())
	cmd.AddCommand(newFacilitiesGetCommand())
	cmd.AddCommand(newFacilitiesCreateCommand())
	cmd.AddCommand(newFacilitiesUpdateCommand())
	cmd.AddCommand(newFacilitiesPatchCommand())
	cmd.AddCommand(newFacilitiesDeleteCommand())

	return cmd
}

func newFacilitiesListCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List facilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			page, err := client.Facilities().List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list facilities: %w", err)
			}

			return renderPage(cmd, "facilities", page,
				[]string{"ID", "Name", "Location", "Capacity", "Status", "Created"},
				func(f opsdesk.Facility) []string {
					return []string{f.ID, f.Name, f.LocationName, strconv.Itoa(f.Capacity), f.Status, formatDate(f.CreatedAt)}
				})
		},
	}

	addListFlags(cmd, &flags)

	return cmd
}

func newFacilitiesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get FACILITY_ID",
		Short: "Get facility details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			facility, err := client.Facilities().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get facility: %w", err)
			}

			return renderDetail(cmd, facility, facilityRows(facility))
		},
	}
}

func facilityRows(f *opsdesk.Facility) [][]string {
	rows := [][]string{
		{"ID", f.ID},
		{"Name", f.Name},
		{"Location", f.LocationName},
		{"Address", valueOrNA(f.Address)},
		{"Capacity", strconv.Itoa(f.Capacity)},
		{"Status", f.Status},
	}

	if f.Latitude != nil && f.Longitude != nil {
		rows = append(rows, []string{"Coordinates", fmt.Sprintf("%.6f, %.6f", *f.Latitude, *f.Longitude)})
	}

	if f.PhotoURL != "" {
		rows = append(rows, []string{"Photo", f.PhotoURL})
	}

	return append(rows,
		[]string{"Created", formatDateTime(&f.CreatedAt)},
		[]string{"Updated", formatDateTime(&f.UpdatedAt)},
	)
}

// facilityFlags are the editable fields of a facility.
type facilityFlags struct {
	name      string
	location  string
	address   string
	status    string
	photo     string
	latitude  float64
	longitude float64
	capacity  int
}

func (f *facilityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "facility name")
	cmd.Flags().StringVar(&f.location, "location", "", "location name")
	cmd.Flags().StringVar(&f.address, "address", "", "street address")
	cmd.Flags().StringVar(&f.status, "status", "", "status (active, inactive, maintenance)")
	cmd.Flags().StringVar(&f.photo, "photo", "", "path of a photo to upload")
	cmd.Flags().Float64Var(&f.latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.longitude, "lng", 0, "longitude")
	cmd.Flags().IntVar(&f.capacity, "capacity", 0, "capacity")
}

// apply copies the flags given on the command line onto req.
func (f *facilityFlags) apply(cmd *cobra.Command, req *opsdesk.FacilityRequest) error {
	changed := cmd.Flags().Changed

	if changed("name") {
		req.Name = f.name
	}

	if changed("location") {
		req.LocationName = f.location
	}

	if changed("address") {
		req.Address = f.address
	}

	if changed("status") {
		req.Status = f.status
	}

	if changed("capacity") {
		req.Capacity = f.capacity
	}

	if lat := floatPtr(cmd, "lat", f.latitude); lat != nil {
		req.Latitude = lat
	}

	if lng := floatPtr(cmd, "lng", f.longitude); lng != nil {
		req.Longitude = lng
	}

	if f.photo != "" {
		photo, err := readUpload(f.photo)
		if err != nil {
			return err
		}

		req.Photo = &photo
	}

	return nil
}

func newFacilitiesCreateCommand() *cobra.Command {
	var flags facilityFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a facility",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &opsdesk.FacilityRequest{}

			err := flags.apply(cmd, req)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			facility, err := client.Facilities().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create facility: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created facility '%s' (%s)\n", facility.Name, facility.ID)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newFacilitiesUpdateCommand() *cobra.Command {
	var flags facilityFlags

	cmd := &cobra.Command{
		Use:   "update FACILITY_ID",
		Short: "Replace a facility",
		Long:  "Replace a facility with its current fields overlaid by the given flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			current, err := client.Facilities().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get facility: %w", err)
			}

			req := &opsdesk.FacilityRequest{
				Name:         current.Name,
				LocationName: current.LocationName,
				Address:      current.Address,
				Latitude:     current.Latitude,
				Longitude:    current.Longitude,
				Capacity:     current.Capacity,
				Status:       current.Status,
			}

			err = flags.apply(cmd, req)
			if err != nil {
				return err
			}

			facility, err := client.Facilities().Update(cmd.Context(), args[0], req)
			if err != nil {
				return fmt.Errorf("failed to update facility: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated facility '%s'\n", facility.Name)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newFacilitiesPatchCommand() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "patch FACILITY_ID",
		Short: "Change selected facility fields",
		Example: `  opsdesk facilities patch f-12 --set status=maintenance
  opsdesk facilities patch f-12 --set capacity=80 --set name="North depot"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseFields(fields)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Facilities().Patch(cmd.Context(), args[0], body)
			if err != nil {
				return fmt.Errorf("failed to patch facility: %w", err)
			}

			return renderResult(cmd, env, "Facility updated")
		},
	}

	cmd.Flags().StringArrayVar(&fields, "set", nil, "field to change as key=value (repeatable)")

	return cmd
}

func newFacilitiesDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete FACILITY_ID",
		Short: "Delete a facility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, fmt.Sprintf("Really delete facility '%s'?", args[0]), force) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Facilities().Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete facility: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted facility '%s'\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}
