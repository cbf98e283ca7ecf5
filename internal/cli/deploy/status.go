package deploy

import (
	"fmt"
	"strconv"

	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/internal/credentials"
	"github.com/navikt/deployment-cli/internal/deployment"
	"github.com/navikt/deployment-cli/pkg/printer"
	"github.com/spf13/cobra"
)

type statusOptions struct {
	credentials credentials.Options
	repository  string
	output      string
}

func newStatusCmd(app *common.App) *cobra.Command {
	opts := &statusOptions{}
	cmd := &cobra.Command{
		Use:   "status <deployment-id>",
		Short: "Show the statuses of a GitHub deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, app, opts, args[0])
		},
	}

	common.AddCredentialFlags(cmd, &opts.credentials)
	cmd.Flags().StringVar(&opts.repository, "repository", "", "Repository the deployment belongs to, <owner>/<name>")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json, yaml)")
	_ = cmd.MarkFlagRequired("repository")
	return cmd
}

func runStatus(cmd *cobra.Command, app *common.App, opts *statusOptions, rawID string) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid deployment id %q: %w", rawID, err)
	}
	format, err := printer.ParseOutputType(opts.output)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	username, password, err := app.ResolveCredentials(ctx, opts.repository, app.WithEnvDefaults(opts.credentials))
	if err != nil {
		return err
	}

	statuses, err := app.GitHub().FetchStatuses(ctx, opts.repository, id, username, password)
	if err != nil {
		return fmt.Errorf("failed to fetch statuses for deployment: %w", err)
	}

	if format == printer.OutputTypeTable {
		if len(statuses) == 0 {
			fmt.Fprintf(app.Out, "No statuses reported for deployment %d\n", id)
			return nil
		}
		if err := printer.PrintStatuses(app.Out, statuses); err != nil {
			return err
		}
		if final, ok := deployment.FinalStatus(statuses); ok {
			fmt.Fprintf(app.Out, "\nFinal state: %s\n", final.State)
		}
		return nil
	}

	p := printer.New(format)
	p.SetOutput(app.Out)
	return p.Print(statuses)
}
