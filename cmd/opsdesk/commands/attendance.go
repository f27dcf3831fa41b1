package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NewAttendanceCommand creates the attendance command group
func NewAttendanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attendance",
		Aliases: []string{"att"},
		Short:   "Track employee attendance",
		Long:    "List shifts and clock employees in and out",
	}

	cmd.AddCommand(newAttendanceListCommand())
	cmd.AddCommand(newAttendanceGetCommand())
	cmd.AddCommand(newAttendanceClockInCommand())
	cmd.AddCommand(newAttendanceClockOutCommand())

	return cmd
}

func newAttendanceListCommand() *cobra.Command {
	var (
		flags    listFlags
		employee string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attendance records",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			var page *opsdesk.Page[opsdesk.AttendanceRecord]
			if employee != "" {
				page, err = client.Attendance().ListForEmployee(cmd.Context(), employee, opts)
			} else {
				page, err = client.Attendance().List(cmd.Context(), opts)
			}

			if err != nil {
				return fmt.Errorf("failed to list attendance: %w", err)
			}

			return renderPage(cmd, "records", page,
				[]string{"ID", "Employee", "Facility", "Clock In", "Clock Out", "Duration"},
				func(r opsdesk.AttendanceRecord) []string {
					return []string{r.ID, employeeLabel(r), valueOrNA(r.FacilityID), formatDateTime(&r.ClockIn), formatDateTime(r.ClockOut), shiftDuration(r)}
				})
		},
	}

	addListFlags(cmd, &flags)
	cmd.Flags().StringVar(&employee, "employee", "", "only records of this employee")

	return cmd
}

func employeeLabel(r opsdesk.AttendanceRecord) string {
	if r.EmployeeName == "" {
		return r.EmployeeID
	}

	return r.EmployeeName
}

// shiftDuration is the length of a closed shift or "open".
func shiftDuration(r opsdesk.AttendanceRecord) string {
	if r.ClockOut == nil {
		return "open"
	}

	return r.ClockOut.Sub(r.ClockIn).Round(time.Minute).String()
}

func newAttendanceGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get RECORD_ID",
		Short: "Get attendance record details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			record, err := client.Attendance().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get attendance record: %w", err)
			}

			return renderDetail(cmd, record, [][]string{
				{"ID", record.ID},
				{"Employee", employeeLabel(*record)},
				{"Employee ID", record.EmployeeID},
				{"Facility", valueOrNA(record.FacilityID)},
				{"Clock In", formatDateTime(&record.ClockIn)},
				{"Clock Out", formatDateTime(record.ClockOut)},
				{"Duration", shiftDuration(*record)},
				{"Status", valueOrNA(record.Status)},
				{"Notes", valueOrNA(record.Notes)},
			})
		},
	}
}

func newAttendanceClockInCommand() *cobra.Command {
	var req opsdesk.ClockInRequest

	cmd := &cobra.Command{
		Use:   "clock-in",
		Short: "Clock an employee in",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			record, err := client.Attendance().ClockIn(cmd.Context(), &req)
			if err != nil {
				return fmt.Errorf("failed to clock in: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Clocked in %s at %s (record %s)\n",
				employeeLabel(*record), formatDateTime(&record.ClockIn), record.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&req.EmployeeID, "employee", "", "employee ID")
	cmd.Flags().StringVar(&req.FacilityID, "facility", "", "facility ID")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "notes")

	return cmd
}

func newAttendanceClockOutCommand() *cobra.Command {
	var req opsdesk.ClockOutRequest

	cmd := &cobra.Command{
		Use:   "clock-out RECORD_ID",
		Short: "Clock an employee out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Attendance().ClockOut(cmd.Context(), args[0], &req)
			if err != nil {
				return fmt.Errorf("failed to clock out: %w", err)
			}

			return renderResult(cmd, env, fmt.Sprintf("Clocked out record '%s'", args[0]))
		},
	}

	cmd.Flags().StringVar(&req.Notes, "notes", "", "notes")

	return cmd
}
