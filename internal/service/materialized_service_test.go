package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/testutil"
	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
)

// TestMaterializedService_Refresh tests materializing the snapshot history.
//
// WHY: Refresh replaces the whole stored history. A failing feed must be recorded
// as a failed run and must leave the previously stored history in place.
func TestMaterializedService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("stores history and records run", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		txs, prices := sampleFeeds()
		svc := testutil.NewTestMaterializedService(t, db, testutil.NewMockSource(txs, prices), valuation.ModeCompat)

		// Execute
		run, err := svc.Refresh(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, 3, run.TransactionCount)
		assert.Equal(t, 3, run.SnapshotCount)
		assert.Equal(t, "compat", run.Mode)
		require.NotNil(t, run.FinishedAt)

		stored, err := svc.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, stored.Status)

		history, err := svc.GetHistory(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "100200", history[2].TotalMarketValue.String())
	})

	t.Run("empty transaction feed records zero counts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		_, prices := sampleFeeds()
		svc := testutil.NewTestMaterializedService(t, db, testutil.NewMockSource(nil, prices), valuation.ModeCompat)

		run, err := svc.Refresh(ctx)

		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, 0, run.TransactionCount)
		assert.Equal(t, 0, run.SnapshotCount)
	})

	t.Run("failure keeps previous history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		txs, prices := sampleFeeds()
		src := testutil.NewMockSource(txs, prices)
		svc := testutil.NewTestMaterializedService(t, db, src, valuation.ModeCompat)

		_, err := svc.Refresh(ctx)
		require.NoError(t, err)

		src.WithPricesError(errors.New("bucket unavailable"))
		run, err := svc.Refresh(ctx)
		require.ErrorIs(t, err, apperrors.ErrFailedToFetchPrices)
		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.Contains(t, run.Error, "bucket unavailable")

		stored, err := svc.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, stored.Status)

		history, err := svc.GetHistory(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})

	t.Run("cancelled context still records failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		src := testutil.NewMockSource(sampleFeeds())
		src.BlockPrices = true
		svc := testutil.NewTestMaterializedService(t, db, src, valuation.ModeCompat)

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		run, err := svc.Refresh(cctx)
		require.Error(t, err)

		stored, err := svc.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, stored.Status)
	})
}

// TestMaterializedService_GetHistory tests serving the stored history.
//
// WHY: Before the first refresh there is nothing stored; callers must still get
// the history, computed on demand, rather than an empty chart.
func TestMaterializedService_GetHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to on-demand computation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		src := testutil.NewMockSource(sampleFeeds())
		svc := testutil.NewTestMaterializedService(t, db, src, valuation.ModeCompat)

		history, err := svc.GetHistory(ctx, testutil.At(1), time.Time{})
		require.NoError(t, err)
		assert.Len(t, history, 2)
		assert.Equal(t, int32(2), src.QueryCount.Load())
	})

	t.Run("serves stored history without reading feeds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		src := testutil.NewMockSource(sampleFeeds())
		svc := testutil.NewTestMaterializedService(t, db, src, valuation.ModeCompat)

		_, err := svc.Refresh(ctx)
		require.NoError(t, err)
		before := src.QueryCount.Load()

		history, err := svc.GetHistory(ctx, time.Time{}, testutil.At(0))
		require.NoError(t, err)
		assert.Len(t, history, 1)
		assert.Equal(t, before, src.QueryCount.Load())
	})

	t.Run("invalid range", func(t *testing.T) {
		svc := testutil.NewTestMaterializedService(t, testutil.SetupTestDB(t), testutil.NewMockSource(nil, nil), valuation.ModeCompat)

		_, err := svc.GetHistory(ctx, testutil.At(1), testutil.At(0))
		assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange)
	})
}

// TestMaterializedService_Runs tests listing and retrieving refresh runs.
func TestMaterializedService_Runs(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestMaterializedService(t, db, testutil.NewMockSource(sampleFeeds()), valuation.ModeSideAware)

	first, err := svc.Refresh(ctx)
	require.NoError(t, err)
	second, err := svc.Refresh(ctx)
	require.NoError(t, err)

	runs, err := svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, "side_aware", runs[0].Mode)

	_, err = svc.GetRun(ctx, testutil.MakeID())
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}
