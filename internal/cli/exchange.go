package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/internal/client"
	"github.com/spf13/cobra"
)

type exchangeOptions struct {
	repository    string
	sharedSecret  string
	sources       []string
	sinks         []string
	correlationID string
	generatorURL  string
}

// NewExchangeTokenCmd creates the exchange-token command
func NewExchangeTokenCmd(app *common.App) *cobra.Command {
	opts := &exchangeOptions{}
	cmd := &cobra.Command{
		Use:   "exchange-token",
		Short: "Request deployment tokens from the token generator",
		Long: `Request tokens for the sources and sinks of a repository from the deployment
token generator, authenticating as the team given with --team.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExchangeToken(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.repository, "repository", "", "Repository the tokens are for, <owner>/<name>")
	cmd.Flags().StringVar(&opts.sharedSecret, "shared-secret", "", "Secret shared between the team and the token generator")
	cmd.Flags().StringArrayVar(&opts.sources, "src", nil, "Token source (repeatable)")
	cmd.Flags().StringArrayVar(&opts.sinks, "sink", nil, "Token sink (repeatable)")
	cmd.Flags().StringVar(&opts.correlationID, "correlation-id", "", "Correlation ID sent with the request, random when omitted")
	cmd.Flags().StringVar(&opts.generatorURL, "generator-url", app.Config.TokenGeneratorURL, "Base URL of the deployment token generator [$DEPLOYMENT_TOKEN_GENERATOR_URL]")
	_ = cmd.MarkFlagRequired("repository")
	_ = cmd.MarkFlagRequired("shared-secret")
	return cmd
}

func runExchangeToken(cmd *cobra.Command, app *common.App, opts *exchangeOptions) error {
	team := app.Template.Team
	if team == "" {
		return errors.New("a team is required, use --team")
	}

	correlationID := opts.correlationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	app.Logger("exchange").Debug("requesting deployment tokens", "repository", opts.repository, "team", team, "correlation_id", correlationID)

	body, err := client.NewTokenGeneratorClient(opts.generatorURL).RequestTokens(cmd.Context(),
		opts.repository, opts.sources, opts.sinks, team, opts.sharedSecret, correlationID)
	if err != nil {
		return fmt.Errorf("failed to exchange token (correlation id %s): %w", correlationID, err)
	}
	fmt.Fprintln(app.Out, body)
	return nil
}
