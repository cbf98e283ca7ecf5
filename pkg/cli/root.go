package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/navikt/deployment-cli/internal/cli"
	"github.com/navikt/deployment-cli/internal/cli/common"
	"github.com/navikt/deployment-cli/internal/cli/deploy"
	"github.com/navikt/deployment-cli/internal/client"
	"github.com/navikt/deployment-cli/internal/config"
	"github.com/navikt/deployment-cli/internal/credentials"
	"github.com/navikt/deployment-cli/pkg/printer"
	"github.com/spf13/cobra"
)

// CLIOptions configures the CLI behavior
type CLIOptions struct {
	// Config holds the environment defaults. If nil, it is loaded from the
	// environment and an optional .env file.
	Config *config.Config

	// Out and Err default to stdout and stderr.
	Out io.Writer
	Err io.Writer

	// Prompter asks for passwords. If nil, the terminal is used.
	Prompter credentials.Prompter
}

// NewRootCmd builds the deployment-cli command tree
func NewRootCmd(opts CLIOptions) *cobra.Command {
	app := common.NewApp(opts.Config)
	if opts.Out != nil {
		app.Out = opts.Out
	}
	if opts.Err != nil {
		app.Err = opts.Err
	}
	app.Prompter = opts.Prompter

	rootCmd := &cobra.Command{
		Use:   "deployment-cli",
		Short: "Deploy to Kubernetes through GitHub deployments",
		Long: `deployment-cli renders Kubernetes resources into a GitHub deployment request,
submits it and waits for the deployment to report a final status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.InitLogging()
			if app.APIURL == "" {
				app.APIURL = client.DefaultBaseURL
			}
			return nil
		},
	}
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)

	app.Template.AddFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&app.APIURL, "api-url", app.Config.APIURL, "GitHub API base URL [$GITHUB_API_URL]")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "V", false, "Verbose output [$DEPLOYMENT_CLI_VERBOSE]")

	rootCmd.AddCommand(cli.NewVersionCmd(app))
	rootCmd.AddCommand(cli.NewTokenCmd(app))
	rootCmd.AddCommand(cli.NewExchangeTokenCmd(app))
	rootCmd.AddCommand(deploy.NewDeployCmd(app))
	return rootCmd
}

// Root returns the command tree configured from the environment. A broken
// .env file is reported on stderr and the environment is used without it.
func Root() *cobra.Command {
	return NewRootCmd(CLIOptions{Config: loadConfig(os.Stderr)})
}

func loadConfig(w io.Writer) *config.Config {
	cfg, err := config.Load()
	if err == nil {
		return cfg
	}
	printer.PrintWarning(w, fmt.Sprintf("ignoring configuration: %v", err))
	if cfg, err = config.Parse(); err == nil {
		return cfg
	}
	printer.PrintWarning(w, fmt.Sprintf("ignoring environment: %v", err))
	return &config.Config{}
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		PrintErrorChain(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(CLIOptions{Config: cfg}).ExecuteContext(ctx); err != nil {
		stop()
		PrintErrorChain(os.Stderr, err)
		os.Exit(1)
	}
}

// PrintErrorChain prints err followed by each of its causes
func PrintErrorChain(w io.Writer, err error) {
	messages := ErrorChain(err)
	if len(messages) == 0 {
		return
	}
	printer.PrintError(w, messages[0])
	for _, cause := range messages[1:] {
		fmt.Fprintf(w, "Caused by: %s\n", cause)
	}
}
