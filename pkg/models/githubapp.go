package models

// Installation binds a GitHub App to an account
type Installation struct {
	ID      uint64  `json:"id"`
	Account Account `json:"account"`
}

// Account is the user or organization an app is installed on
type Account struct {
	ID    uint64 `json:"id"`
	Login string `json:"login"`
}

// InstallationToken is a short-lived token scoped to one installation
type InstallationToken struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// TokenRequest asks the deployment token generator for scoped tokens
type TokenRequest struct {
	Repository string   `json:"repository"`
	Sources    []string `json:"sources"`
	Sinks      []string `json:"sinks"`
}
