package cli

import (
	"errors"
	"fmt"

	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/internal/credentials"
	"github.com/navikt/deployment-cli/internal/githubapp"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	credentials credentials.Options
	account     string
}

// NewTokenCmd creates the token command
func NewTokenCmd(app *common.App) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a GitHub app installation token",
		Long: `Exchange a GitHub app identity for an installation access token and print it.

The installation is looked up by the login of the account it is installed on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, app, opts)
		},
	}

	common.AddAppFlags(cmd, &opts.credentials)
	cmd.Flags().StringVar(&opts.account, "account", app.Config.Account, "Account the app is installed on [$ACCOUNT]")
	return cmd
}

func runToken(cmd *cobra.Command, app *common.App, opts *tokenOptions) error {
	creds := app.WithEnvDefaults(opts.credentials)
	if !creds.UsesApp() {
		return errors.New("an application ID is required, use --appid or GITHUB_APP_ID")
	}
	account := opts.account
	if account == "" {
		account = "navikt"
	}

	key, err := githubapp.LoadKey(creds.KeyPath, creds.KeyBase64)
	if err != nil {
		return err
	}

	exchanger := githubapp.NewExchanger(app.GitHub(), app.Logger("githubapp"))
	token, err := exchanger.InstallationTokenFor(cmd.Context(), creds.AppID, key, account)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, token)
	return nil
}
