package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/navikt/deployment-cli/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c := NewClient("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	require.NotNil(t, c.httpClient)
	assert.NotZero(t, c.httpClient.Timeout)

	c = NewClient("http://localhost:1234/")
	assert.Equal(t, "http://localhost:1234", c.BaseURL)
}

func TestCreateDeployment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/navikt/testapp/deployments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "testuser", user)
		assert.Equal(t, "testpassword", pass)

		var body models.DeploymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "prod-fss", body.Environment)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	req := models.NewDeploymentRequest("master", "prod-fss", "plattform", false, nil)
	body, err := c.CreateDeployment(context.Background(), "navikt/testapp", req, "testuser", "testpassword")
	require.NoError(t, err)
	assert.Equal(t, `{"id": 1}`, body)
}

func TestCreateDeployment_NotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.CreateDeployment(context.Background(), "navikt/testapp", &models.DeploymentRequest{}, "u", "p")
	require.Error(t, err)

	notOK, ok := IsNotOK(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, notOK.StatusCode)
	assert.Contains(t, notOK.Body, "Bad credentials")
	assert.Contains(t, err.Error(), "401")
}

func TestFetchStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/navikt/deployment-cli/deployments/42/statuses", r.URL.Path)
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)
		_, _ = w.Write([]byte(`[
			{"id": 3, "state": "pending", "target_url": "http://localhost"},
			{"id": 2, "state": "success", "target_url": "http://localhost"}
		]`))
	}))
	defer server.Close()

	statuses, err := NewClient(server.URL).FetchStatuses(context.Background(), "navikt/deployment-cli", 42, "user", "pass")
	require.NoError(t, err)
	assert.Equal(t, []models.DeploymentStatus{
		{ID: 3, State: "pending", TargetURL: "http://localhost"},
		{ID: 2, State: models.DeploymentStateSuccess, TargetURL: "http://localhost"},
	}, statuses)
}

func TestFetchStatuses_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchStatuses(context.Background(), "a/b", 1, "u", "p")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "fetch deployment statuses", httpErr.Op)
	_, notOK := IsNotOK(err)
	assert.False(t, notOK)
}

func TestFetchStatuses_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).FetchStatuses(context.Background(), "a/b", 1, "u", "p")
	require.Error(t, err)

	httpErr, ok := IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "fetch deployment statuses", httpErr.Op)
}

func TestFetchInstallations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app/installations", r.URL.Path)
		assert.Equal(t, "Bearer signed.jwt.value", r.Header.Get("Authorization"))
		assert.Equal(t, appsAcceptHeader, r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[{"id": 123, "account": {"id": 1, "login": "navikt"}}]`))
	}))
	defer server.Close()

	installations, err := NewClient(server.URL).FetchInstallations(context.Background(), "signed.jwt.value")
	require.NoError(t, err)
	assert.Equal(t, []models.Installation{{ID: 123, Account: models.Account{ID: 1, Login: "navikt"}}}, installations)
}

func TestFetchInstallationToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/app/installations/123/access_tokens", r.URL.Path)
		assert.Equal(t, "Bearer signed.jwt.value", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token": "abcde", "expires_at": "2016-07-11T22:14:10Z"}`))
	}))
	defer server.Close()

	token, err := NewClient(server.URL).FetchInstallationToken(context.Background(), 123, "signed.jwt.value")
	require.NoError(t, err)
	assert.Equal(t, "abcde", token.Token)
	assert.Equal(t, "2016-07-11T22:14:10Z", token.ExpiresAt)
}

func TestRequestTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tokens", r.URL.Path)
		assert.Equal(t, "trackable_id", r.Header.Get("X-Correlation-Id"))
		user, pass, _ := r.BasicAuth()
		assert.Equal(t, "plattform", user)
		assert.Equal(t, "abcde", pass)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"repository": "deployment-cli", "sources": [], "sinks": ["github"]}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := NewTokenGeneratorClient(server.URL)
	resp, err := c.RequestTokens(context.Background(), "deployment-cli", nil, []string{"github"}, "plattform", "abcde", "trackable_id")
	require.NoError(t, err)
	assert.Equal(t, "{}", resp)
}
