package manifest

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// VariableOptions are the inputs merged into the template variables
type VariableOptions struct {
	// VarsFile is a JSON or YAML object with additional variables
	VarsFile  string
	Ref       string
	Cluster   string
	Team      string
	Version   string
	Overrides []string
}

// BuildVariables merges the variables file, the deployment settings and the
// key=value overrides, in that order of precedence from lowest to highest.
func BuildVariables(opts VariableOptions) (map[string]any, error) {
	vars := map[string]any{}
	if opts.VarsFile != "" {
		data, err := os.ReadFile(opts.VarsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to open variables file %s: %w", opts.VarsFile, err)
		}
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("unable to parse variables file %s: %w", opts.VarsFile, err)
		}
		if vars == nil {
			vars = map[string]any{}
		}
	}

	vars["ref"] = opts.Ref
	vars["cluster"] = opts.Cluster
	vars["team"] = opts.Team
	if opts.Version != "" {
		vars["version"] = opts.Version
	}

	overrides, err := ParseOverrides(opts.Overrides)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars, nil
}

// ParseOverrides parses <name>=<value> pairs, splitting on the first '='
func ParseOverrides(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid format for variable override %q, expected <name>=<value>", pair)
		}
		result[key] = value
	}
	return result, nil
}
