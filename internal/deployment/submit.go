package deployment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/navikt/deployment-cli/pkg/models"
)

var (
	// ErrMissingID is returned when the create response has no id field
	ErrMissingID = errors.New("did not receive an id in deployment response")
	// ErrInvalidID is returned when the id field is not an unsigned integer
	ErrInvalidID = errors.New("unable to parse deployment id as an unsigned integer")
)

// Creator submits deployment requests
type Creator interface {
	CreateDeployment(ctx context.Context, repo string, request *models.DeploymentRequest, username, password string) (string, error)
}

// Submitter creates deployments and extracts their ids
type Submitter struct {
	creator Creator
	logger  *slog.Logger
}

// NewSubmitter creates a Submitter backed by creator
func NewSubmitter(creator Creator, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{creator: creator, logger: logger}
}

// Submit creates the deployment and returns the raw response together with the
// deployment id. Errors from the API are wrapped; a response without a usable
// id yields ErrMissingID or ErrInvalidID.
func (s *Submitter) Submit(ctx context.Context, repo string, request *models.DeploymentRequest, username, password string) (string, uint64, error) {
	raw, err := s.creator.CreateDeployment(ctx, repo, request, username, password)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create deployment: %w", err)
	}

	id, err := ParseID(raw)
	if err != nil {
		return raw, 0, err
	}
	s.logger.Debug("created deployment", "repository", repo, "id", id, "environment", request.Environment)
	return raw, id, nil
}

// ParseID extracts the numeric id field of a deployment response
func ParseID(raw string) (uint64, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to parse deployment response: %w", err)
	}

	value, ok := body["id"]
	if !ok {
		return 0, ErrMissingID
	}
	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrInvalidID, value)
	}
	id, err := strconv.ParseUint(number.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, number)
	}
	return id, nil
}
