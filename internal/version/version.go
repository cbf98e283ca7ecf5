package version

// Set at build time with -ldflags "-X github.com/navikt/deployment-cli/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// UserAgent is sent with every API request
func UserAgent() string {
	return "deployment-cli/" + Version
}
