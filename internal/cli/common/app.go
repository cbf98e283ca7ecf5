// Package common holds the state and flags shared by the deployment-cli commands.
package common

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/navikt/deployment-cli/internal/client"
	"github.com/navikt/deployment-cli/internal/config"
	"github.com/navikt/deployment-cli/internal/credentials"
	"github.com/navikt/deployment-cli/internal/githubapp"
	"github.com/navikt/deployment-cli/internal/logging"
)

// App is shared by every command. The root command fills it in from the
// environment and the persistent flags before any subcommand runs.
type App struct {
	Config   *config.Config
	Template TemplateOptions
	APIURL   string
	Verbose  bool

	Out      io.Writer
	Err      io.Writer
	Prompter credentials.Prompter

	logger *slog.Logger
}

// NewApp creates an App writing to stdout and stderr
func NewApp(cfg *config.Config) *App {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &App{
		Config: cfg,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
}

// InitLogging sets up the logger according to the verbose flag
func (a *App) InitLogging() {
	a.logger = logging.Init(a.Err, a.Verbose || a.Config.Verbose)
}

// Logger returns the logger for name
func (a *App) Logger(name string) *slog.Logger {
	if a.logger == nil {
		a.InitLogging()
	}
	return logging.Subsystem(a.logger, name)
}

// GitHub returns a client for the GitHub API
func (a *App) GitHub() *client.Client {
	return client.NewClient(a.APIURL)
}

// Resolver returns a credential resolver that exchanges app identities
// against the GitHub API.
func (a *App) Resolver() *credentials.Resolver {
	exchanger := githubapp.NewExchanger(a.GitHub(), a.Logger("githubapp"))
	return credentials.NewResolver(exchanger, a.Prompter)
}

// ResolveCredentials resolves opts for repo
func (a *App) ResolveCredentials(ctx context.Context, repo string, opts credentials.Options) (string, string, error) {
	user, secret, err := a.Resolver().Resolve(ctx, repo, opts)
	if err != nil {
		return "", "", err
	}
	a.Logger("credentials").Debug("resolved credentials", "repository", repo, "username", user, "app", opts.UsesApp())
	return user, secret, nil
}
