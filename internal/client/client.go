package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/navikt/deployment-cli/internal/version"
	"github.com/navikt/deployment-cli/pkg/models"
)

const (
	// DefaultBaseURL is the public GitHub API
	DefaultBaseURL = "https://api.github.com"

	appsAcceptHeader = "application/vnd.github.machine-man-preview+json"
)

// NotOKError is returned when the API answers with a non-2xx status
type NotOKError struct {
	StatusCode int
	Body       string
}

func (e *NotOKError) Error() string {
	return fmt.Sprintf("HTTP call returned unexpected result code %d, response: %s", e.StatusCode, e.Body)
}

// HTTPError is returned when a call fails below the HTTP status level, e.g.
// DNS, TLS, timeouts, reset connections or an undecodable response body.
type HTTPError struct {
	Op  string
	Err error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("failed to execute HTTP call %s: %v", e.Op, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// IsNotOK reports whether err carries a non-2xx response, returning it if so
func IsNotOK(err error) (*NotOKError, bool) {
	var notOK *NotOKError
	if errors.As(err, &notOK) {
		return notOK, true
	}
	return nil, false
}

// IsHTTPError reports whether err is a transport or decoding failure
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// Client talks to the GitHub deployments and apps APIs
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for baseURL, falling back to DefaultBaseURL
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		inBytes, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %T: %w", in, err)
		}
		body = bytes.NewReader(inBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", version.UserAgent())
	return req, nil
}

// execute runs req and returns the response body of a 2xx response
func (c *Client) execute(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &HTTPError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(body)
		if err != nil {
			text += err.Error()
		}
		return nil, &NotOKError{StatusCode: resp.StatusCode, Body: text}
	}
	if err != nil {
		return nil, &HTTPError{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) executeJSON(op string, req *http.Request, out any) error {
	body, err := c.execute(op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &HTTPError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// CreateDeployment posts a deployment request for repo and returns the raw
// response body.
func (c *Client) CreateDeployment(ctx context.Context, repo string, request *models.DeploymentRequest, username, password string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/repos/"+repo+"/deployments", request)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(username, password)
	body, err := c.execute("create deployment", req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchStatuses lists the statuses of a deployment in the order GitHub returns them
func (c *Client) FetchStatuses(ctx context.Context, repo string, id uint64, username, password string) ([]models.DeploymentStatus, error) {
	path := "/repos/" + repo + "/deployments/" + strconv.FormatUint(id, 10) + "/statuses"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(username, password)
	var statuses []models.DeploymentStatus
	if err := c.executeJSON("fetch deployment statuses", req, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// FetchInstallations lists the installations of the app identified by jwt
func (c *Client) FetchInstallations(ctx context.Context, jwt string) ([]models.Installation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/app/installations", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+jwt)
	req.Header.Set("Accept", appsAcceptHeader)
	var installations []models.Installation
	if err := c.executeJSON("fetch installations", req, &installations); err != nil {
		return nil, err
	}
	return installations, nil
}

// FetchInstallationToken creates an access token for an installation
func (c *Client) FetchInstallationToken(ctx context.Context, installationID uint64, jwt string) (*models.InstallationToken, error) {
	path := "/app/installations/" + strconv.FormatUint(installationID, 10) + "/access_tokens"
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+jwt)
	req.Header.Set("Accept", appsAcceptHeader)
	var token models.InstallationToken
	if err := c.executeJSON("fetch installation token", req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
