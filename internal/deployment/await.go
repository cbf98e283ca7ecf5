package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/navikt/deployment-cli/pkg/models"
)

// StatusFetcher lists the statuses of a deployment
type StatusFetcher interface {
	FetchStatuses(ctx context.Context, repo string, id uint64, username, password string) ([]models.DeploymentStatus, error)
}

// Observer is told about every status list fetched while awaiting
type Observer interface {
	Polled(attempt int, statuses []models.DeploymentStatus)
}

// Target identifies the deployment to await and how to authenticate
type Target struct {
	Repository string
	ID         uint64
	Username   string
	Password   string
}

// AwaitFailure is returned when a deployment ends in anything but success
type AwaitFailure struct {
	Status models.DeploymentStatus
}

func (f *AwaitFailure) Error() string {
	switch f.Status.State {
	case models.DeploymentStateError:
		return fmt.Sprintf("Deploy returned the status \"error\", this usually means there is a configuration fault in deployment or deployment-cli. For more information check %s", f.Status.TargetURL)
	case models.DeploymentStateFailure:
		return fmt.Sprintf("Deploy returned the status \"failure\", this usually means there is a configuration error in your Kubernetes resource. For more information check %s", f.Status.TargetURL)
	case models.DeploymentStateTimedOut:
		return fmt.Sprintf("deployment-cli timed out waiting for deployment statuses, this usually means your application is failing to start (in a reboot loop or taking too long), check your application logs and the logs from deployment at %s", f.Status.TargetURL)
	default:
		return fmt.Sprintf("Deploy returned an unknown status, for more information check %s", f.Status.TargetURL)
	}
}

// ErrDurationOutOfRange is returned for await budgets and poll intervals that
// do not fit in a time.Duration
var ErrDurationOutOfRange = errors.New("duration out of range")

// BudgetFromSeconds converts an await budget given in seconds
func BudgetFromSeconds(seconds uint64) (time.Duration, error) {
	return durationFrom(seconds, time.Second)
}

// IntervalFromMillis converts a poll interval given in milliseconds
func IntervalFromMillis(millis uint64) (time.Duration, error) {
	return durationFrom(millis, time.Millisecond)
}

func durationFrom(n uint64, unit time.Duration) (time.Duration, error) {
	if n > uint64(math.MaxInt64/int64(unit)) {
		return 0, fmt.Errorf("%w: %d x %s", ErrDurationOutOfRange, n, unit)
	}
	return time.Duration(n) * unit, nil
}

// FinalStatus returns the first status, in the order given, that ends polling
func FinalStatus(statuses []models.DeploymentStatus) (models.DeploymentStatus, bool) {
	for _, status := range statuses {
		if status.State.IsTerminal() {
			return status, true
		}
	}
	return models.DeploymentStatus{}, false
}

// Poller awaits a terminal deployment status
type Poller struct {
	fetcher  StatusFetcher
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithObserver reports every fetched status list to o
func WithObserver(o Observer) PollerOption {
	return func(p *Poller) {
		p.observer = o
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// WithClock replaces the wall clock and sleep, for tests
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		p.now = now
		p.sleep = sleep
	}
}

// NewPoller creates a Poller fetching statuses through fetcher
func NewPoller(fetcher StatusFetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher: fetcher,
		logger:  slog.Default(),
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Await polls the statuses of target until a terminal status shows up or
// budget has passed. A zero budget returns immediately without any request.
//
// The budget is only checked between polls. When it runs out, the statuses
// are fetched one last time and the first entry, forced to timed out, is
// returned in an AwaitFailure. Fetch errors are never retried.
func (p *Poller) Await(ctx context.Context, target Target, budget, interval time.Duration) error {
	if budget == 0 {
		return nil
	}
	if budget < 0 || interval < 0 {
		return fmt.Errorf("%w: await %s, poll interval %s", ErrDurationOutOfRange, budget, interval)
	}

	start := p.now()
	attempt := 0
	for p.now().Sub(start) < budget {
		attempt++
		statuses, err := p.fetch(ctx, target, attempt)
		if err != nil {
			return err
		}

		if final, ok := FinalStatus(statuses); ok {
			p.logger.Debug("deployment reached final status", "id", target.ID, "state", final.State, "attempt", attempt)
			if final.State.IsSuccess() {
				return nil
			}
			return &AwaitFailure{Status: final}
		}

		if err := p.sleep(ctx, interval); err != nil {
			return err
		}
	}

	statuses, err := p.fetch(ctx, target, attempt+1)
	if err != nil {
		return err
	}
	last := models.DeploymentStatus{ID: 0, TargetURL: "Unknown"}
	if len(statuses) > 0 {
		last = statuses[0]
	}
	last.State = models.DeploymentStateTimedOut
	return &AwaitFailure{Status: last}
}

func (p *Poller) fetch(ctx context.Context, target Target, attempt int) ([]models.DeploymentStatus, error) {
	statuses, err := p.fetcher.FetchStatuses(ctx, target.Repository, target.ID, target.Username, target.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statuses for deployment: %w", err)
	}
	p.logger.Debug("fetched deployment statuses", "id", target.ID, "count", len(statuses), "attempt", attempt)
	if p.observer != nil {
		p.observer.Polled(attempt, statuses)
	}
	return statuses, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
