package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/navikt/deployment-cli/pkg/models"
)

// DefaultTokenGeneratorURL is the deployment token generator used by CI jobs
const DefaultTokenGeneratorURL = "https://deployment-token-generator.nais.io"

// TokenGeneratorClient requests scoped deployment tokens on behalf of a team
type TokenGeneratorClient struct {
	*Client
}

// NewTokenGeneratorClient constructs a client for the token generator at baseURL
func NewTokenGeneratorClient(baseURL string) *TokenGeneratorClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultTokenGeneratorURL
	}
	return &TokenGeneratorClient{
		Client: &Client{
			BaseURL:    strings.TrimRight(baseURL, "/"),
			httpClient: &http.Client{Timeout: 30 * time.Second},
		},
	}
}

// RequestTokens asks for tokens covering sources and sinks of repository and
// returns the raw response body.
func (c *TokenGeneratorClient) RequestTokens(ctx context.Context, repository string, sources, sinks []string, team, sharedSecret, correlationID string) (string, error) {
	if sources == nil {
		sources = []string{}
	}
	if sinks == nil {
		sinks = []string{}
	}
	body := &models.TokenRequest{
		Repository: repository,
		Sources:    sources,
		Sinks:      sinks,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/tokens", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Correlation-Id", correlationID)
	req.SetBasicAuth(team, sharedSecret)
	resp, err := c.execute("request deployment tokens", req)
	if err != nil {
		return "", err
	}
	return string(resp), nil
}
