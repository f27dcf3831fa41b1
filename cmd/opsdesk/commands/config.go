package commands

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsclient"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

const (
	configDirName  = ".opsdesk"
	configFileName = "config.yml"
)

// Config represents the CLI configuration.
type Config struct {
	// Multi-API configuration
	APIs       map[string]*APIConfig `json:"apis,omitempty"        yaml:"apis,omitempty"`
	CurrentAPI string                `json:"current_api,omitempty" yaml:"current_api,omitempty"`

	// Global settings
	Output    string `json:"output,omitempty"     yaml:"output,omitempty"`
	PageLimit int    `json:"page_limit,omitempty" yaml:"page_limit,omitempty"`

	// Response cache: memory (default), nats, tiered or none
	Cache   string `json:"cache,omitempty"    yaml:"cache,omitempty"`
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
}

// APIConfig represents configuration for a single opsdesk backend.
type APIConfig struct {
	Endpoint       string     `json:"endpoint"                   yaml:"endpoint"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`
	Username       string     `json:"username,omitempty"         yaml:"username,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change opsdesk CLI settings and the configured APIs",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the CLI configuration with tokens masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			masked := maskConfig(config)

			switch outputFormat() {
			case constants.FormatJSON:
				return renderJSON(cmd.OutOrStdout(), masked)
			case constants.FormatYAML:
				return renderYAML(cmd.OutOrStdout(), masked)
			default:
				return displayConfigTable(cmd.OutOrStdout(), masked)
			}
		},
	}
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append("Config File", configFilePath())
	_ = table.Append("Current API", valueOrNA(config.CurrentAPI))
	_ = table.Append("Output", valueOrNA(config.Output))

	if config.PageLimit > 0 {
		_ = table.Append("Page Limit", strconv.Itoa(config.PageLimit))
	}

	_ = table.Append("Response Cache", valueOrNA(config.Cache))

	if config.NATSURL != "" {
		_ = table.Append("NATS URL", config.NATSURL)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render config table: %w", err)
	}

	if len(config.APIs) == 0 {
		_, _ = fmt.Fprintln(w, "\nNo APIs configured. Use 'opsdesk login --api <url>' to add one.")

		return nil
	}

	_, _ = fmt.Fprintln(w, "\nConfigured APIs:")

	apiTable := tablewriter.NewWriter(w)
	apiTable.Header("Name", "Endpoint", "Username", "Token", "Current")

	for _, name := range sortedAPINames(config) {
		apiConfig := config.APIs[name]

		current := ""
		if name == config.CurrentAPI {
			current = constants.CheckMarkSymbol
		}

		_ = apiTable.Append([]string{
			name,
			apiConfig.Endpoint,
			valueOrNA(apiConfig.Username),
			tokenState(apiConfig),
			current,
		})
	}

	err = apiTable.Render()
	if err != nil {
		return fmt.Errorf("failed to render API config table: %w", err)
	}

	return nil
}

func newConfigSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Keys:
  output       default output format (table, json, yaml)
  page_limit   default page size of list commands
  current_api  name of the API targeted by default
  cache        response cache backend (memory, nats, tiered, none)
  nats_url     NATS server shared by the nats and tiered caches`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", args[0], args[1])

			return nil
		},
	}

	// Values such as "-1" are arguments, not shorthand flags.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			switch args[0] {
			case "output":
				config.Output = ""
			case "page_limit":
				config.PageLimit = 0
			case "current_api":
				config.CurrentAPI = ""
			case "cache":
				config.Cache = ""
			case "nats_url":
				config.NATSURL = ""
			default:
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, args[0])
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all configuration",
		Long:  "Remove every configured API, token and setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, "Really clear all configuration?", force) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			err := saveConfigStruct(&Config{})
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration cleared")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "output":
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			config.Output = value
		default:
			return fmt.Errorf("%w: output must be table, json or yaml", ErrInvalidValue)
		}
	case "page_limit":
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 {
			return fmt.Errorf("%w: page_limit must be a positive integer", ErrInvalidValue)
		}

		config.PageLimit = limit
	case "current_api":
		if _, exists := config.APIs[value]; !exists {
			return fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, value)
		}

		config.CurrentAPI = value
	case "cache":
		switch opsdesk.CacheType(value) {
		case opsdesk.CacheTypeMemory, opsdesk.CacheTypeNATS, opsdesk.CacheTypeTiered, opsdesk.CacheTypeNone:
			config.Cache = value
		default:
			return fmt.Errorf("%w: cache must be memory, nats, tiered or none", ErrInvalidValue)
		}
	case "nats_url":
		config.NATSURL = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// configFilePath returns the file the configuration is read from and saved to.
func configFilePath() string {
	if file := viper.ConfigFileUsed(); file != "" {
		return file
	}

	if file := viper.GetString("config"); file != "" {
		return file
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDirName, configFileName)
	}

	return filepath.Join(home, configDirName, configFileName)
}

// loadConfig reads the configuration file. A missing file is an empty configuration.
func loadConfig() (*Config, error) {
	config := &Config{}

	// #nosec G304 -- the path comes from the --config flag or the user's home directory
	data, err := os.ReadFile(configFilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}

		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func saveConfigStruct(config *Config) error {
	configFile := configFilePath()

	err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// resolveAPI returns the name and configuration of the API selected by the
// --api flag or, without it, the current API. An --api value that is not a
// configured name is taken as an endpoint URL.
func resolveAPI(config *Config, apiFlag string) (string, *APIConfig, error) {
	if apiFlag != "" {
		if apiConfig, exists := config.APIs[apiFlag]; exists {
			return apiFlag, apiConfig, nil
		}

		endpoint := opsclient.NormalizeEndpoint(apiFlag)
		for name, apiConfig := range config.APIs {
			if apiConfig.Endpoint == endpoint {
				return name, apiConfig, nil
			}
		}

		return apiNameFromEndpoint(endpoint), &APIConfig{Endpoint: endpoint}, nil
	}

	if len(config.APIs) == 0 {
		return "", nil, constants.ErrNoAPIsConfigured
	}

	name := config.CurrentAPI
	if name == "" {
		name = sortedAPINames(config)[0]
	}

	apiConfig, exists := config.APIs[name]
	if !exists {
		return "", nil, fmt.Errorf("%w: '%s'", constants.ErrAPIConfigNotFound, name)
	}

	return name, apiConfig, nil
}

// apiNameFromEndpoint derives a config key from the endpoint host.
func apiNameFromEndpoint(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return endpoint
	}

	return parsed.Host
}

func sortedAPINames(config *Config) []string {
	names := make([]string, 0, len(config.APIs))
	for name := range config.APIs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func maskConfig(config *Config) *Config {
	masked := *config
	masked.APIs = make(map[string]*APIConfig, len(config.APIs))

	for name, apiConfig := range config.APIs {
		copied := *apiConfig
		if copied.Token != "" {
			copied.Token = constants.MaskedSecret
		}

		masked.APIs[name] = &copied
	}

	return &masked
}

func tokenState(apiConfig *APIConfig) string {
	switch {
	case apiConfig.Token == "":
		return "none"
	case apiConfig.TokenExpiresAt != nil && time.Now().After(*apiConfig.TokenExpiresAt):
		return "expired"
	case apiConfig.TokenExpiresAt != nil:
		return "valid until " + apiConfig.TokenExpiresAt.Local().Format(constants.DateTimeLayout)
	default:
		return "valid"
	}
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
