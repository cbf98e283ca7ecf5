package config

import (
	"errors"
	"fmt"
	"io/fs"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the defaults for command line flags, taken from the
// environment. Flags given on the command line always win.
type Config struct {
	Username  string `env:"DEPLOYMENT_USERNAME"`
	Password  string `env:"DEPLOYMENT_PASSWORD"`
	Token     string `env:"DEPLOYMENT_TOKEN"`
	AppID     string `env:"GITHUB_APP_ID"`
	AppKey    string `env:"GITHUB_APP_KEY"`
	AppKeyB64 string `env:"GITHUB_APP_KEY_BASE64"`
	Account   string `env:"ACCOUNT" envDefault:"navikt"`

	APIURL            string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	TokenGeneratorURL string `env:"DEPLOYMENT_TOKEN_GENERATOR_URL" envDefault:"https://deployment-token-generator.nais.io"`
	Verbose           bool   `env:"DEPLOYMENT_CLI_VERBOSE" envDefault:"false"`
}

// Load reads an optional .env file from the working directory and parses the
// environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Parse()
}

// Parse parses the environment without looking for a .env file
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
