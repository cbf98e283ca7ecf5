package deploy

import (
	"fmt"
	"io"
	"time"

	"github.com/navikt/deployment-cli/pkg/models"
	"github.com/schollz/progressbar/v3"
)

// progressSpinner shows the latest deployment state while awaiting
type progressSpinner struct {
	bar *progressbar.ProgressBar
}

func newProgressSpinner(out io.Writer) *progressSpinner {
	return &progressSpinner{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Awaiting deployment status"),
			progressbar.OptionSetWriter(out),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (s *progressSpinner) Polled(attempt int, statuses []models.DeploymentStatus) {
	state := "no status yet"
	if len(statuses) > 0 {
		state = string(statuses[0].State)
	}
	s.bar.Describe(fmt.Sprintf("Awaiting deployment status (%s, poll %d)", state, attempt))
	_ = s.bar.Add(1)
}

func (s *progressSpinner) Finish() {
	_ = s.bar.Finish()
}
