package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/navikt/deployment-cli/internal/githubapp"
	"golang.org/x/term"
)

// AppTokenUser is the basic auth username GitHub expects with installation tokens
const AppTokenUser = "x-access-token"

// ErrNoCredentials is returned when no authentication mode was selected
var ErrNoCredentials = errors.New("no credentials given, use --username, --token or --appid")

// ErrInvalidRepository is returned for repositories not on the form <owner>/<name>
var ErrInvalidRepository = errors.New("repository format should be <user/org>/<repository>")

// Options selects how the caller authenticates
type Options struct {
	Username  string
	Password  string
	Token     string
	AppID     string
	KeyPath   string
	KeyBase64 string
}

// UsesApp reports whether a GitHub app identity was selected
func (o Options) UsesApp() bool {
	return o.AppID != ""
}

// TokenSource mints installation tokens for a GitHub app
type TokenSource interface {
	InstallationTokenFor(ctx context.Context, appID string, key []byte, account string) (string, error)
}

// Prompter asks the operator for a secret
type Prompter interface {
	Password(prompt string) (string, error)
}

// Resolver turns Options into a username and secret for basic auth
type Resolver struct {
	tokens   TokenSource
	prompter Prompter
}

// NewResolver creates a Resolver. A nil prompter reads from the terminal.
func NewResolver(tokens TokenSource, prompter Prompter) *Resolver {
	if prompter == nil {
		prompter = TerminalPrompter{}
	}
	return &Resolver{tokens: tokens, prompter: prompter}
}

// Owner returns the account part of repo, the text before the first slash
func Owner(repo string) (string, error) {
	owner, _, found := strings.Cut(repo, "/")
	if !found {
		return "", fmt.Errorf("%w, got %q", ErrInvalidRepository, repo)
	}
	return owner, nil
}

// Resolve returns the credentials used against repo
func (r *Resolver) Resolve(ctx context.Context, repo string, opts Options) (string, string, error) {
	owner, err := Owner(repo)
	if err != nil {
		return "", "", err
	}

	username := opts.Username
	if username == "" {
		username = AppTokenUser
	}

	switch {
	case opts.Token != "":
		return username, opts.Token, nil
	case opts.Password != "":
		return username, opts.Password, nil
	case opts.UsesApp():
		key, err := githubapp.LoadKey(opts.KeyPath, opts.KeyBase64)
		if err != nil {
			return "", "", err
		}
		token, err := r.tokens.InstallationTokenFor(ctx, opts.AppID, key, owner)
		if err != nil {
			return "", "", err
		}
		return username, token, nil
	case opts.Username != "":
		password, err := r.prompter.Password("Please enter GitHub password: ")
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		return username, password, nil
	default:
		return "", "", ErrNoCredentials
	}
}

// TerminalPrompter reads secrets from the controlling terminal without echo
type TerminalPrompter struct{}

func (TerminalPrompter) Password(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for interactive password prompt (use --password)")
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
