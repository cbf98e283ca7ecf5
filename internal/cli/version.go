package cli

import (
	"fmt"
	"runtime"

	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd(app *common.App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.Out, "deployment-cli version %s\n", version.Version)
			fmt.Fprintf(app.Out, "Git commit: %s\n", version.GitCommit)
			fmt.Fprintf(app.Out, "Go version: %s\n", runtime.Version())
		},
	}
}
