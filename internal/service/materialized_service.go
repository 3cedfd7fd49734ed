package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/repository"
)

// MaterializedService keeps a stored copy of the computed snapshot history.
// It coordinates between the stored history and on-demand computation, falling
// back to the latter until a first refresh has completed.
type MaterializedService struct {
	snapshotRepo   *repository.SnapshotRepository
	historyService *HistoryService
	logger         zerolog.Logger

	// refreshMu serializes refreshes; a refresh replaces the whole history.
	refreshMu sync.Mutex
	now       func() time.Time
}

// NewMaterializedService creates a new MaterializedService with the provided dependencies.
func NewMaterializedService(
	snapshotRepo *repository.SnapshotRepository,
	historyService *HistoryService,
	logger zerolog.Logger,
) *MaterializedService {
	return &MaterializedService{
		snapshotRepo:   snapshotRepo,
		historyService: historyService,
		logger:         logger,
		now:            time.Now,
	}
}

// Refresh recomputes the snapshot history from the feeds and replaces the
// stored history with it.
//
// Every refresh is recorded as a run. The run is created with status running,
// and ends either completed, together with the new history in the same
// database transaction, or failed with the error message. A failed refresh
// leaves the previously stored history untouched.
//
// Returns the final state of the run, also on error.
func (s *MaterializedService) Refresh(ctx context.Context) (model.SnapshotRun, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	run := model.SnapshotRun{
		ID:        uuid.New().String(),
		StartedAt: s.now().UTC(),
		Mode:      string(s.historyService.Mode()),
		Status:    model.RunStatusRunning,
	}
	if err := s.snapshotRepo.CreateRun(ctx, run); err != nil {
		return run, fmt.Errorf("%w: %w", apperrors.ErrFailedToStoreHistory, err)
	}

	log := s.logger.With().Str("run_id", run.ID).Logger()
	log.Info().Str("mode", run.Mode).Msg("refresh started")

	result, err := s.historyService.Compute(ctx)
	if err != nil {
		return s.fail(ctx, run, err)
	}

	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.TransactionCount = result.TransactionCount
	run.SnapshotCount = len(result.History)
	run.Status = model.RunStatusCompleted

	if err := s.snapshotRepo.ReplaceHistory(ctx, run, result.History); err != nil {
		return s.fail(ctx, run, fmt.Errorf("%w: %w", apperrors.ErrFailedToStoreHistory, err))
	}

	log.Info().
		Int("transactions", run.TransactionCount).
		Int("snapshots", run.SnapshotCount).
		Dur("duration", finished.Sub(run.StartedAt)).
		Msg("refresh completed")

	return run, nil
}

// fail records cause on run. The record is written even when ctx is already
// cancelled, which is a common cause of failure.
func (s *MaterializedService) fail(ctx context.Context, run model.SnapshotRun, cause error) (model.SnapshotRun, error) {
	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.Status = model.RunStatusFailed
	run.Error = cause.Error()

	if err := s.snapshotRepo.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to record failed refresh")
	}
	s.logger.Error().Err(cause).Str("run_id", run.ID).Msg("refresh failed")
	return run, cause
}

// GetHistory returns the stored snapshots whose timestamp lies within [start, end].
// A zero start or end leaves that side of the range open.
//
// Until a refresh has completed the history is computed on demand, so callers
// always receive a history consistent with the feeds.
func (s *MaterializedService) GetHistory(ctx context.Context, start, end time.Time) ([]model.Snapshot, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	_, err := s.snapshotRepo.LatestCompletedRun(ctx)
	if errors.Is(err, apperrors.ErrRunNotFound) {
		s.logger.Debug().Msg("no materialized history, computing on demand")
		return s.historyService.GetHistory(ctx, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}

	snapshots, err := s.snapshotRepo.GetHistory(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHistory, err)
	}
	return snapshots, nil
}

// ListRuns returns the most recent refresh runs, newest first.
func (s *MaterializedService) ListRuns(ctx context.Context, limit int) ([]model.SnapshotRun, error) {
	runs, err := s.snapshotRepo.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRuns, err)
	}
	return runs, nil
}

// GetRun returns a single refresh run.
// Returns apperrors.ErrRunNotFound when no run has the given ID.
func (s *MaterializedService) GetRun(ctx context.Context, id string) (model.SnapshotRun, error) {
	run, err := s.snapshotRepo.GetRun(ctx, id)
	if errors.Is(err, apperrors.ErrRunNotFound) {
		return model.SnapshotRun{}, err
	}
	if err != nil {
		return model.SnapshotRun{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRuns, err)
	}
	return run, nil
}
