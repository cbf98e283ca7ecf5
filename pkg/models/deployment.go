package models

import (
	"encoding/json"
	"slices"
)

// ProtocolVersion marks the schema of the deployment payload. It is not the
// version of the application being deployed.
func ProtocolVersion() [3]int {
	return [3]int{1, 0, 0}
}

var clusters = []string{"dev-fss", "dev-sbs", "prod-fss", "prod-sbs", "staging-gcp", "dev-gcp", "prod-gcp"}

// Clusters lists the environments a deployment request may target. The
// returned slice is a copy.
func Clusters() []string {
	return slices.Clone(clusters)
}

// IsAllowedCluster reports whether name is one of Clusters
func IsAllowedCluster(name string) bool {
	return slices.Contains(clusters, name)
}

// DeploymentRequest is the body sent to the deployments API
type DeploymentRequest struct {
	Ref              string   `json:"ref" yaml:"ref"`
	AutoMerge        bool     `json:"auto_merge" yaml:"auto_merge"`
	Description      string   `json:"description" yaml:"description"`
	Environment      string   `json:"environment" yaml:"environment"`
	RequiredContexts []string `json:"required_contexts" yaml:"required_contexts"`
	Payload          Payload  `json:"payload" yaml:"payload"`
}

// Payload is the deployment payload consumed by the deploy daemon
type Payload struct {
	Version    [3]int     `json:"version" yaml:"version,flow"`
	Team       string     `json:"team" yaml:"team"`
	Kubernetes Kubernetes `json:"kubernetes" yaml:"kubernetes"`
}

// Kubernetes holds the rendered resources in the order they are applied
type Kubernetes struct {
	Resources []any `json:"resources" yaml:"resources"`
}

// NewDeploymentRequest builds a request for cluster with the given resources.
// A nil resource list is sent as an empty array.
func NewDeploymentRequest(ref, cluster, team string, autoMerge bool, resources []any) *DeploymentRequest {
	if resources == nil {
		resources = []any{}
	}
	return &DeploymentRequest{
		Ref:              ref,
		AutoMerge:        autoMerge,
		Description:      "Automated deployment request to " + cluster,
		Environment:      cluster,
		RequiredContexts: []string{},
		Payload: Payload{
			Version: ProtocolVersion(),
			Team:    team,
			Kubernetes: Kubernetes{
				Resources: resources,
			},
		},
	}
}

// DeploymentState is the state of a single deployment status
type DeploymentState string

const (
	DeploymentStateFailure DeploymentState = "failure"
	DeploymentStateError   DeploymentState = "error"
	DeploymentStateSuccess DeploymentState = "success"
	// DeploymentStateTimedOut is never sent by GitHub. It is set locally when
	// awaiting a deployment runs out of time.
	DeploymentStateTimedOut DeploymentState = "timed_out"
)

// IsTerminal reports whether the state ends polling. Only the three states
// GitHub reports as final count; timed out and unknown states do not.
func (s DeploymentState) IsTerminal() bool {
	switch s {
	case DeploymentStateFailure, DeploymentStateError, DeploymentStateSuccess:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the state is a successful deployment
func (s DeploymentState) IsSuccess() bool {
	return s == DeploymentStateSuccess
}

// DeploymentStatus is one entry of the statuses list of a deployment
type DeploymentStatus struct {
	ID        uint64          `json:"id"`
	State     DeploymentState `json:"state"`
	TargetURL string          `json:"target_url"`
}

// UnmarshalJSON tolerates a null target_url, which GitHub sends for statuses
// created without one.
func (s *DeploymentStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        uint64          `json:"id"`
		State     DeploymentState `json:"state"`
		TargetURL *string         `json:"target_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.State = raw.State
	s.TargetURL = ""
	if raw.TargetURL != nil {
		s.TargetURL = *raw.TargetURL
	}
	return nil
}
