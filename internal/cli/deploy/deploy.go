// Package deploy implements the deploy command group.
package deploy

import (
	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/spf13/cobra"
)

// NewDeployCmd creates the deploy command and its subcommands
func NewDeployCmd(app *common.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Command for GitHub deployments",
		Long:  `Create GitHub deployments of Kubernetes resources and inspect their statuses.`,
	}

	cmd.AddCommand(newPayloadCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	return cmd
}
