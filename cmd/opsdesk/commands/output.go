package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

const defaultIndent = 2

// outputFormat returns the --output flag, falling back to the configured
// default and then to a table.
func outputFormat() string {
	if output := viper.GetString("output"); output != "" {
		return output
	}

	config, err := loadConfig()
	if err == nil && config.Output != "" {
		return config.Output
	}

	return constants.FormatTable
}

func renderJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

// renderDetail prints one resource as JSON, YAML or a property table.
func renderDetail(cmd *cobra.Command, data any, rows [][]string) error {
	w := cmd.OutOrStdout()

	switch outputFormat() {
	case constants.FormatJSON:
		return renderJSON(w, data)
	case constants.FormatYAML:
		return renderYAML(w, data)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, row := range rows {
		_ = table.Append(row)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderPage prints one page of a list. Tables end with a footer built from
// the page meta, since the rows only show the current page.
func renderPage[T any](cmd *cobra.Command, noun string, page *opsdesk.Page[T], headers []string, row func(T) []string) error {
	w := cmd.OutOrStdout()

	switch outputFormat() {
	case constants.FormatJSON:
		return renderJSON(w, page)
	case constants.FormatYAML:
		return renderYAML(w, page)
	}

	if len(page.Data) == 0 {
		_, _ = fmt.Fprintf(w, "No %s found\n", noun)

		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header(headerCells(headers)...)

	for _, item := range page.Data {
		_ = table.Append(row(item))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, _ = fmt.Fprintln(w, pageFooter(noun, len(page.Data), page.Meta))

	return nil
}

func headerCells(headers []string) []any {
	cells := make([]any, len(headers))
	for i, header := range headers {
		cells[i] = header
	}

	return cells
}

func pageFooter(noun string, shown int, meta opsdesk.PageMeta) string {
	footer := fmt.Sprintf("Showing %d of %d %s", shown, meta.Total, noun)

	if meta.CurrentPage != nil && meta.LastPage > 0 {
		footer += fmt.Sprintf(" (page %d of %d)", *meta.CurrentPage, meta.LastPage)
	}

	if meta.HasNext() && meta.CurrentPage != nil {
		footer += fmt.Sprintf(", use --page %d for more", *meta.CurrentPage+1)
	}

	return footer
}

// renderResult prints the outcome of a mutation whose reply has no typed payload.
func renderResult(cmd *cobra.Command, env *opsdesk.RawEnvelope, fallback string) error {
	w := cmd.OutOrStdout()

	switch outputFormat() {
	case constants.FormatJSON:
		return renderJSON(w, env)
	case constants.FormatYAML:
		return renderYAML(w, env)
	}

	message := fallback
	if env != nil && env.Message != "" {
		message = env.Message
	}

	_, _ = fmt.Fprintln(w, message)

	return nil
}

// PrintError writes err for a terminal user. Field diagnostics are printed
// one per line so each offending field can be found.
func PrintError(w io.Writer, err error) {
	fields := opsdesk.FieldErrors(err)
	if len(fields) == 0 {
		_, _ = fmt.Fprintln(w, "Error:", err)

		return
	}

	_, _ = fmt.Fprintln(w, "Error:", errorHeadline(err))

	for _, field := range fields {
		_, _ = fmt.Fprintf(w, "  %s\n", field)
	}
}

func errorHeadline(err error) string {
	switch opsdesk.KindOf(err) {
	case opsdesk.KindRequestValidation:
		return "invalid input, nothing was sent"
	case opsdesk.KindDecode:
		return "the server reply did not have the expected shape"
	case opsdesk.KindTransport:
		if status := opsdesk.StatusCode(err); status != 0 {
			return fmt.Sprintf("the server rejected the request (status %d)", status)
		}

		return "the request failed"
	default:
		return "the request failed"
	}
}

func formatDate(value time.Time) string {
	return value.Local().Format(constants.DateLayout)
}

func formatDateTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return constants.NotAvailable
	}

	return value.Local().Format(constants.DateTimeLayout)
}
