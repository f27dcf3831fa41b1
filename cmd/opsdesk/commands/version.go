package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionInfo is the version command's JSON and YAML shape.
type versionInfo struct {
	Version  string `json:"version"  yaml:"version"`
	Commit   string `json:"commit"   yaml:"commit"`
	Built    string `json:"built"    yaml:"built"`
	Go       string `json:"go"       yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
}

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display the opsdesk CLI build and the Go runtime it was built with",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:  version,
				Commit:   commit,
				Built:    date,
				Go:       runtime.Version(),
				Platform: runtime.GOOS + "/" + runtime.GOARCH,
			}

			return renderDetail(cmd, info, [][]string{
				{"Version", info.Version},
				{"Commit", info.Commit},
				{"Built", info.Built},
				{"Go", info.Go},
				{"Platform", info.Platform},
			})
		},
	}
}
