package common

import (
	"fmt"
	"strings"

	"github.com/navikt/deployment-cli/internal/credentials"
	"github.com/navikt/deployment-cli/internal/manifest"
	"github.com/navikt/deployment-cli/pkg/models"
	"github.com/spf13/cobra"
)

// TemplateOptions are the global flags describing what to deploy
type TemplateOptions struct {
	Resources    []string
	RawResources []string
	VarsFile     string
	Overrides    []string
	Ref          string
	Cluster      string
	Team         string
	Version      string
	AutoMerge    bool
}

// AddFlags registers the templating flags as persistent flags on cmd
func (o *TemplateOptions) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringArrayVarP(&o.Resources, "resource", "r", nil, "Kubernetes resource to apply, templated with the variables (repeatable)")
	flags.StringArrayVar(&o.RawResources, "raw-resource", nil, "Kubernetes resource to apply without templating (repeatable)")
	flags.StringVar(&o.VarsFile, "vars", "", "Path to a JSON or YAML file with additional template variables")
	flags.StringArrayVar(&o.Overrides, "var", nil, "Override a template variable, <name>=<value> (repeatable)")
	flags.StringVarP(&o.Ref, "ref", "g", "master", "Reference used for the deployment")
	flags.StringVarP(&o.Cluster, "cluster", "c", "dev-fss", "Cluster to deploy to ("+strings.Join(models.Clusters(), ", ")+")")
	flags.StringVarP(&o.Team, "team", "t", "", "Team the deployment is for")
	flags.StringVar(&o.Version, "version", "", "Version number to be deployed")
	flags.BoolVar(&o.AutoMerge, "auto-merge", false, "Let GitHub merge the default branch into ref before deploying")
	_ = flags.MarkDeprecated("version", "use --var version=<version> instead")
}

// Validate checks the flag values that do not need any file access
func (o *TemplateOptions) Validate() error {
	if !models.IsAllowedCluster(o.Cluster) {
		return fmt.Errorf("invalid cluster %q, expected one of %s", o.Cluster, strings.Join(models.Clusters(), ", "))
	}
	return nil
}

// BuildRequest renders the resources and wraps them in a deployment request
func (o *TemplateOptions) BuildRequest() (*models.DeploymentRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	vars, err := manifest.BuildVariables(manifest.VariableOptions{
		VarsFile:  o.VarsFile,
		Ref:       o.Ref,
		Cluster:   o.Cluster,
		Team:      o.Team,
		Version:   o.Version,
		Overrides: o.Overrides,
	})
	if err != nil {
		return nil, err
	}

	renderer := manifest.NewRenderer()
	resources, err := renderer.Render(o.Resources, vars)
	if err != nil {
		return nil, err
	}
	raw, err := renderer.LoadRaw(o.RawResources)
	if err != nil {
		return nil, err
	}
	resources = append(resources, raw...)

	return models.NewDeploymentRequest(o.Ref, o.Cluster, o.Team, o.AutoMerge, resources), nil
}

// AddAppFlags registers the GitHub app identity flags on cmd
func AddAppFlags(cmd *cobra.Command, opts *credentials.Options) {
	cmd.Flags().StringVarP(&opts.AppID, "appid", "a", "", "Application ID for GitHub apps [$GITHUB_APP_ID]")
	cmd.Flags().StringVarP(&opts.KeyPath, "key", "k", "", "Path to the private key of the GitHub app [$GITHUB_APP_KEY]")
	cmd.Flags().StringVar(&opts.KeyBase64, "key-base64", "", "Private key of the GitHub app, base64 encoded PEM [$GITHUB_APP_KEY_BASE64]")
}

// AddCredentialFlags registers every credential flag on cmd
func AddCredentialFlags(cmd *cobra.Command, opts *credentials.Options) {
	AddAppFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "GitHub username [$DEPLOYMENT_USERNAME]")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "GitHub password, prompted for when a username is given without one [$DEPLOYMENT_PASSWORD]")
	cmd.Flags().StringVar(&opts.Token, "token", "", "GitHub token used instead of a password [$DEPLOYMENT_TOKEN]")
}

// WithEnvDefaults fills the options left empty on the command line from the
// environment. Secrets are never used as flag defaults.
//
// The environment only applies to an authentication mode chosen on the
// command line as a whole: when any user flag (username, password, token) is
// given, no user values and no app id come from the environment. The app key
// is taken from the environment whenever an app id is set without one.
func (a *App) WithEnvDefaults(opts credentials.Options) credentials.Options {
	cfg := a.Config
	userFlags := opts.Username != "" || opts.Password != "" || opts.Token != ""
	appFlags := opts.AppID != "" || opts.KeyPath != "" || opts.KeyBase64 != ""

	switch {
	case !userFlags && !appFlags:
		return credentials.Options{
			Username:  cfg.Username,
			Password:  cfg.Password,
			Token:     cfg.Token,
			AppID:     cfg.AppID,
			KeyPath:   cfg.AppKey,
			KeyBase64: cfg.AppKeyB64,
		}
	case appFlags && !userFlags:
		opts.AppID = firstNonEmpty(opts.AppID, cfg.AppID)
	}
	if opts.AppID != "" && opts.KeyPath == "" && opts.KeyBase64 == "" {
		opts.KeyPath = cfg.AppKey
		opts.KeyBase64 = cfg.AppKeyB64
	}
	return opts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
