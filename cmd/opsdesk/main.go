package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/opsdesk/cmd/opsdesk/commands"
	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "opsdesk",
	Short: "Facilities operations dashboard CLI",
	Long: `A command-line interface for the opsdesk facilities dashboard.

It covers facilities, inventory, attendance, hazard observations and IT
tickets of an opsdesk backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.opsdesk/config.yml)")
	rootCmd.PersistentFlags().StringP("api", "a", "", "API name from config or endpoint URL")
	rootCmd.PersistentFlags().StringP("token", "t", "", "access token (overrides the stored token)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log HTTP traffic")

	// Bind flags to viper
	for _, name := range []string{"config", "api", "token", "output", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewWhoAmICommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewAPIsCommand())
	rootCmd.AddCommand(commands.NewFacilitiesCommand())
	rootCmd.AddCommand(commands.NewInventoryCommand())
	rootCmd.AddCommand(commands.NewAttendanceCommand())
	rootCmd.AddCommand(commands.NewHazardsCommand())
	rootCmd.AddCommand(commands.NewTicketsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".opsdesk")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		// Search config in ~/.opsdesk/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// OPSDESK_API, OPSDESK_TOKEN, OPSDESK_PASSWORD, ...
	viper.SetEnvPrefix("OPSDESK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		commands.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
