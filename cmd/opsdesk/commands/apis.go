package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsclient"
)

// NewAPIsCommand creates the apis command group.
func NewAPIsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apis",
		Aliases: []string{"api"},
		Short:   "Manage opsdesk API endpoints",
		Long:    "Add, list, delete, and target opsdesk backends",
	}

	cmd.AddCommand(newAPIsAddCommand())
	cmd.AddCommand(newAPIsListCommand())
	cmd.AddCommand(newAPIsDeleteCommand())
	cmd.AddCommand(newAPIsTargetCommand())

	return cmd
}

func newAPIsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME ENDPOINT",
		Short: "Add an API endpoint",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			endpoint := opsclient.NormalizeEndpoint(args[1])

			config, err := loadConfig()
			if err != nil {
				return err
			}

			if config.APIs == nil {
				config.APIs = make(map[string]*APIConfig)
			}

			if _, exists := config.APIs[name]; exists {
				return fmt.Errorf("%w: API '%s' already exists", ErrInvalidValue, name)
			}

			config.APIs[name] = &APIConfig{Endpoint: endpoint}

			message := fmt.Sprintf("API '%s' (%s) added", name, endpoint)
			if config.CurrentAPI == "" {
				config.CurrentAPI = name
				message += " and set as current target"
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), message)

			return nil
		},
	}
}

func newAPIsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()

			if len(config.APIs) == 0 {
				_, _ = fmt.Fprintln(w, "No APIs configured. Use 'opsdesk apis add' to add one.")

				return nil
			}

			type apiInfo struct {
				Name     string `json:"name"               yaml:"name"`
				Endpoint string `json:"endpoint"           yaml:"endpoint"`
				Username string `json:"username,omitempty" yaml:"username,omitempty"`
				Token    string `json:"token"              yaml:"token"`
				Current  bool   `json:"current"            yaml:"current"`
			}

			apis := make([]apiInfo, 0, len(config.APIs))
			for _, name := range sortedAPINames(config) {
				apiConfig := config.APIs[name]
				apis = append(apis, apiInfo{
					Name:     name,
					Endpoint: apiConfig.Endpoint,
					Username: apiConfig.Username,
					Token:    tokenState(apiConfig),
					Current:  name == config.CurrentAPI,
				})
			}

			switch outputFormat() {
			case constants.FormatJSON:
				return renderJSON(w, apis)
			case constants.FormatYAML:
				return renderYAML(w, apis)
			}

			table := tablewriter.NewWriter(w)
			table.Header("Name", "Endpoint", "Username", "Token", "Current")

			for _, api := range apis {
				current := ""
				if api.Current {
					current = constants.CheckMarkSymbol
				}

				_ = table.Append([]string{api.Name, api.Endpoint, valueOrNA(api.Username), api.Token, current})
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func newAPIsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an API endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			config, err := loadConfig()
			if err != nil {
				return err
			}

			if _, exists := config.APIs[name]; !exists {
				return fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, name)
			}

			delete(config.APIs, name)

			if config.CurrentAPI == name {
				config.CurrentAPI = ""
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "API '%s' deleted\n", name)

			return nil
		},
	}
}

func newAPIsTargetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "target NAME",
		Short: "Set the current API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, "current_api", args[0])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Targeting API '%s' (%s)\n", args[0], config.APIs[args[0]].Endpoint)

			return nil
		},
	}
}
