package githubapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/navikt/deployment-cli/pkg/models"
)

// AssertionLifetime is how long a signed app assertion stays valid
const AssertionLifetime = 5 * time.Minute

// ErrInstallationNotFound is returned when the app is not installed on the account
var ErrInstallationNotFound = errors.New("installation not found")

// Claims identifies the GitHub app to the apps API
type Claims struct {
	jwt.RegisteredClaims
}

// AppsAPI is the part of the GitHub API used to mint installation tokens
type AppsAPI interface {
	FetchInstallations(ctx context.Context, jwt string) ([]models.Installation, error)
	FetchInstallationToken(ctx context.Context, installationID uint64, jwt string) (*models.InstallationToken, error)
}

// SignAssertion signs an RS256 assertion for appID issued at now
func SignAssertion(appID string, der []byte, now time.Time) (string, error) {
	key, err := parseKey(der)
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT used to authenticate as a GitHub app: %w", err)
	}

	issuedAt := now.Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    appID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(AssertionLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT used to authenticate as a GitHub app: %w", err)
	}
	return signed, nil
}

// Exchanger trades an app identity for installation access tokens
type Exchanger struct {
	api    AppsAPI
	now    func() time.Time
	logger *slog.Logger
}

// NewExchanger creates an Exchanger backed by api
func NewExchanger(api AppsAPI, logger *slog.Logger) *Exchanger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exchanger{
		api:    api,
		now:    time.Now,
		logger: logger,
	}
}

// InstallationToken returns an access token for the installation of appID on
// account. Nothing is retried; the returned error names the failing step.
func (e *Exchanger) InstallationToken(ctx context.Context, appID string, der []byte, account string) (*models.InstallationToken, error) {
	assertion, err := SignAssertion(appID, der, e.now())
	if err != nil {
		return nil, err
	}

	installations, err := e.api.FetchInstallations(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch installations: %w", err)
	}

	installationID, err := findInstallation(installations, account)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("found app installation", "account", account, "installation", installationID)

	token, err := e.api.FetchInstallationToken(ctx, installationID, assertion)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch installation token: %w", err)
	}
	return token, nil
}

func findInstallation(installations []models.Installation, account string) (uint64, error) {
	for _, installation := range installations {
		if installation.Account.Login == account {
			return installation.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: unable to find the account %s in the list of installations. Is the GitHub app used for authenticating installed on this account?", ErrInstallationNotFound, account)
}

// InstallationTokenFor is InstallationToken reduced to the token string
func (e *Exchanger) InstallationTokenFor(ctx context.Context, appID string, der []byte, account string) (string, error) {
	token, err := e.InstallationToken(ctx, appID, der, account)
	if err != nil {
		return "", err
	}
	return token.Token, nil
}
