package commands

import (
	"bufio"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Static errors for err113 compliance.
var (
	ErrInvalidValue  = errors.New("invalid value")
	ErrInvalidField  = errors.New("fields must be given as key=value")
	ErrNothingToDo   = errors.New("no changes given")
	ErrEmailRequired = errors.New("email is required")
)

// listFlags are the pagination and filtering flags shared by list commands.
type listFlags struct {
	page    int
	limit   int
	sort    string
	search  string
	filters []string
}

func addListFlags(cmd *cobra.Command, flags *listFlags) {
	cmd.Flags().IntVar(&flags.page, "page", 0, "page number (default 1)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "results per page (default from config or 25)")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "sort as field:direction, e.g. created_at:desc")
	cmd.Flags().StringVar(&flags.search, "search", "", "free-text search")
	cmd.Flags().StringSliceVar(&flags.filters, "filter", nil, "filter as key=value (repeatable)")
}

// options converts the flags into list options. Without --limit the
// configured page_limit applies.
func (f *listFlags) options() (*opsdesk.ListOptions, error) {
	opts := &opsdesk.ListOptions{
		Page:   f.page,
		Limit:  f.limit,
		Sort:   f.sort,
		Search: f.search,
	}

	if opts.Sort != "" {
		field, direction, _ := strings.Cut(opts.Sort, ":")
		if field == "" || (direction != "" && direction != constants.SortAsc && direction != constants.SortDesc) {
			return nil, fmt.Errorf("%w: sort %q", ErrInvalidValue, opts.Sort)
		}
	}

	if opts.Limit == 0 {
		config, err := loadConfig()
		if err == nil {
			opts.Limit = config.PageLimit
		}
	}

	if len(f.filters) == 0 {
		return opts, nil
	}

	opts.Filters = make(map[string]string, len(f.filters))

	for _, filter := range f.filters {
		key, value, found := strings.Cut(filter, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, filter)
		}

		opts.Filters[key] = value
	}

	return opts, nil
}

// parseFields turns key=value pairs into a partial update body. Values are
// read as YAML scalars, so numbers and booleans keep their type.
func parseFields(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, ErrNothingToDo
	}

	fields := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, pair)
		}

		var value any

		err := yaml.Unmarshal([]byte(raw), &value)
		if err != nil || value == nil {
			value = raw
		}

		fields[key] = value
	}

	return fields, nil
}

// readUpload loads a file from disk as a multipart upload.
func readUpload(path string) (opsdesk.File, error) {
	// #nosec G304 -- the path is given by the user on the command line
	content, err := os.ReadFile(path)
	if err != nil {
		return opsdesk.File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	return opsdesk.File{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// confirm asks a yes/no question unless force is set.
func confirm(cmd *cobra.Command, prompt string, force bool) bool {
	if force {
		return true
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (y/N): ", prompt)

	response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	response = strings.TrimSpace(response)

	return response == "y" || response == "Y"
}

// prompt reads one line of input after printing label.
func prompt(cmd *cobra.Command, label string) string {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), label)

	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')

	return strings.TrimSpace(line)
}

func floatPtr(cmd *cobra.Command, name string, value float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	return &value
}
