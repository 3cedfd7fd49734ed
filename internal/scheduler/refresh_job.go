package scheduler

import (
	"context"
	"time"

	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// Refresher materializes the snapshot history.
type Refresher interface {
	Refresh(ctx context.Context) (model.SnapshotRun, error)
}

// RefreshJob periodically refreshes the materialized snapshot history.
type RefreshJob struct {
	refresher Refresher
	timeout   time.Duration
}

// NewRefreshJob creates a refresh job. A positive timeout bounds each run.
func NewRefreshJob(refresher Refresher, timeout time.Duration) *RefreshJob {
	return &RefreshJob{refresher: refresher, timeout: timeout}
}

// Name implements Job.
func (j *RefreshJob) Name() string {
	return "refresh_history"
}

// Run implements Job.
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	_, err := j.refresher.Refresh(ctx)
	return err
}
