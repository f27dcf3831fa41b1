package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/opsdesk/internal/auth"
	"github.com/fivetwenty-io/opsdesk/pkg/opsclient"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		name     string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an opsdesk backend",
		Long: `Sign in with email and password and store the session token.

The API is taken from --api (a configured name or an endpoint URL) or the
current API. The password is read from --password, OPSDESK_PASSWORD or an
interactive prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			apiFlag := viper.GetString("api")
			if apiFlag == "" && len(config.APIs) == 0 {
				apiFlag = prompt(cmd, "API endpoint: ")
			}

			apiName, apiConfig, err := resolveAPI(config, apiFlag)
			if err != nil {
				return err
			}

			if name != "" {
				apiName = name
			}

			if email == "" {
				email = apiConfig.Username
			}

			if email == "" {
				email = prompt(cmd, "Email: ")
			}

			if email == "" {
				return ErrEmailRequired
			}

			if password == "" {
				password = viper.GetString("password")
			}

			if password == "" {
				password, err = readPassword(cmd)
				if err != nil {
					return err
				}
			}

			c, err := opsclient.NewWithEndpoint(cmd.Context(), apiConfig.Endpoint)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			session, err := c.Session().Login(cmd.Context(), &opsdesk.LoginRequest{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("failed to sign in: %w", err)
			}

			storeSession(config, apiName, apiConfig, email, session)

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Signed in to %s as %s\n", apiConfig.Endpoint, displayName(session.User))

			if config.CurrentAPI == apiName {
				_, _ = fmt.Fprintf(out, "API '%s' is the current target\n", apiName)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name to store the API under (default: endpoint host)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email to sign in with")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}

// storeSession records the token and sign-in identity of an API. The first
// API signed in to becomes the current one.
func storeSession(config *Config, apiName string, apiConfig *APIConfig, email string, session *opsdesk.Session) {
	if config.APIs == nil {
		config.APIs = make(map[string]*APIConfig)
	}

	now := time.Now()

	apiConfig.Token = session.Token
	apiConfig.Username = email
	apiConfig.LastRefreshed = &now
	apiConfig.TokenExpiresAt = session.ExpiresAt

	if apiConfig.TokenExpiresAt == nil {
		if expiresAt, err := auth.ExpiryFromJWT(session.Token); err == nil {
			apiConfig.TokenExpiresAt = &expiresAt
		}
	}

	config.APIs[apiName] = apiConfig

	if config.CurrentAPI == "" {
		config.CurrentAPI = apiName
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Password: ")

	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	return string(bytePassword), nil
}

func displayName(profile opsdesk.Profile) string {
	if profile.Name == "" {
		return profile.Email
	}

	return fmt.Sprintf("%s <%s>", profile.Name, profile.Email)
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Long:  "Remove the session token of the selected API from the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			apiName, apiConfig, err := resolveAPI(config, viper.GetString("api"))
			if err != nil {
				return err
			}

			apiConfig.Token = ""
			apiConfig.TokenExpiresAt = nil

			if _, exists := config.APIs[apiName]; exists {
				err = saveConfigStruct(config)
				if err != nil {
					return fmt.Errorf("failed to save configuration: %w", err)
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed out of %s\n", apiName)

			return nil
		},
	}
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			profile, err := c.Session().Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get profile: %w", err)
			}

			return renderDetail(cmd, profile, [][]string{
				{"ID", profile.ID},
				{"Name", valueOrNA(profile.Name)},
				{"Email", profile.Email},
				{"Role", valueOrNA(profile.Role)},
			})
		},
	}
}
