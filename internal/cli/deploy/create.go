package deploy

import (
	"errors"
	"fmt"

	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/internal/credentials"
	"github.com/navikt/deployment-cli/internal/deployment"
	"github.com/navikt/deployment-cli/pkg/printer"
	"github.com/spf13/cobra"
)

type createOptions struct {
	credentials  credentials.Options
	repository   string
	await        uint64
	pollInterval uint64
	noProgress   bool
}

func newCreateCmd(app *common.App) *cobra.Command {
	opts := &createOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a GitHub deployment",
		Long: `Create a GitHub deployment of the given resources and wait for it to finish.

Authenticate with --username and --password or --token, or as a GitHub app
with --appid and --key or --key-base64.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, app, opts)
		},
	}

	common.AddCredentialFlags(cmd, &opts.credentials)
	cmd.Flags().StringVar(&opts.repository, "repository", "", "Repository to create the deployment request on, <owner>/<name>")
	cmd.Flags().Uint64Var(&opts.await, "await", 180, "Seconds to wait for a final deployment status, 0 to skip")
	cmd.Flags().Uint64Var(&opts.pollInterval, "poll-interval", 1000, "Milliseconds between status polls while waiting")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Do not show a progress spinner while waiting")
	_ = cmd.MarkFlagRequired("repository")
	return cmd
}

func runCreate(cmd *cobra.Command, app *common.App, opts *createOptions) error {
	ctx := cmd.Context()
	logger := app.Logger("deploy")

	budget, err := deployment.BudgetFromSeconds(opts.await)
	if err != nil {
		return fmt.Errorf("invalid --await: %w", err)
	}
	interval, err := deployment.IntervalFromMillis(opts.pollInterval)
	if err != nil {
		return fmt.Errorf("invalid --poll-interval: %w", err)
	}

	request, err := app.Template.BuildRequest()
	if err != nil {
		return err
	}

	username, password, err := app.ResolveCredentials(ctx, opts.repository, app.WithEnvDefaults(opts.credentials))
	if err != nil {
		return err
	}

	github := app.GitHub()
	raw, id, err := deployment.NewSubmitter(github, logger).Submit(ctx, opts.repository, request, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, raw)
	logger.Info("created deployment", "repository", opts.repository, "id", id, "cluster", request.Environment)

	if budget == 0 {
		printer.PrintWarning(app.Err, fmt.Sprintf("Not waiting for a final status of deployment %d (--await 0)", id))
		return nil
	}

	pollerOpts := []deployment.PollerOption{deployment.WithLogger(logger)}
	var spinner *progressSpinner
	if !opts.noProgress {
		spinner = newProgressSpinner(app.Err)
		pollerOpts = append(pollerOpts, deployment.WithObserver(spinner))
	}

	target := deployment.Target{
		Repository: opts.repository,
		ID:         id,
		Username:   username,
		Password:   password,
	}
	err = deployment.NewPoller(github, pollerOpts...).Await(ctx, target, budget, interval)
	if spinner != nil {
		spinner.Finish()
	}

	var failure *deployment.AwaitFailure
	if errors.As(err, &failure) {
		logger.Debug("deployment did not succeed", "id", failure.Status.ID, "state", failure.Status.State)
	}
	if err != nil {
		return err
	}
	printer.PrintSuccess(app.Err, fmt.Sprintf("Deployment %d to %s succeeded", id, request.Environment))
	return nil
}
