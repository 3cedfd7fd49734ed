package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// SnapshotRepository provides data access methods for the materialized snapshot
// history and the runs that produced it.
//
// Decimal values are stored as TEXT through decimal.Decimal's sql.Scanner and
// driver.Valuer implementations, so stored snapshots compare equal to the
// computed ones.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new repository instance.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// CreateRun inserts a new refresh run record, typically with status running.
func (r *SnapshotRepository) CreateRun(ctx context.Context, run model.SnapshotRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshot_run (id, started_at, finished_at, mode, transaction_count, snapshot_count, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		FormatTime(run.StartedAt),
		formatOptionalTime(run.FinishedAt),
		run.Mode,
		run.TransactionCount,
		run.SnapshotCount,
		run.Status,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot run: %w", err)
	}
	return nil
}

// FinishRun stores the final state of a run that did not replace the history,
// e.g. a failed refresh.
func (r *SnapshotRepository) FinishRun(ctx context.Context, run model.SnapshotRun) error {
	return updateRun(ctx, r.db, run)
}

// ReplaceHistory atomically replaces the stored snapshot history with snapshots
// and stores the final state of run. Either the whole new history becomes
// visible or, on error, the previous one is kept.
//
// Snapshots are stored in slice order; GetHistory returns them in the same order.
func (r *SnapshotRepository) ReplaceHistory(ctx context.Context, run model.SnapshotRun, snapshots []model.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// snapshot_position rows follow via ON DELETE CASCADE
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	snapStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot (seq, run_id, ts, base_currency, total_quote_invested,
		                      total_market_value, total_unrealized_pl, total_realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer snapStmt.Close()

	posStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_position (snapshot_seq, position_index, symbol, open_qty, total_cost,
		                               avg_cost, price, market_value, unrealized_pl, realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare position insert: %w", err)
	}
	defer posStmt.Close()

	for i, s := range snapshots {
		seq := i + 1
		_, err := snapStmt.ExecContext(ctx,
			seq,
			run.ID,
			FormatTime(s.Timestamp),
			s.BaseCurrency,
			s.TotalQuoteInvested,
			s.TotalMarketValue,
			s.TotalUnrealizedPL,
			s.TotalRealizedPL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot %d: %w", seq, err)
		}

		for j, p := range s.Positions {
			_, err := posStmt.ExecContext(ctx,
				seq,
				j,
				p.Symbol,
				p.Quantity,
				p.TotalCost,
				p.AvgCost,
				p.Price,
				p.MarketValue,
				p.UnrealizedPL,
				p.RealizedPL,
			)
			if err != nil {
				return fmt.Errorf("failed to insert position %s of snapshot %d: %w", p.Symbol, seq, err)
			}
		}
	}

	if err := updateRun(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetHistory retrieves the stored snapshots whose timestamp lies within
// [start, end], in stored order. A zero start or end leaves that side unbounded.
// Returns an empty slice when nothing matches.
func (r *SnapshotRepository) GetHistory(ctx context.Context, start, end time.Time) ([]model.Snapshot, error) {
	var (
		conditions []string
		args       []any
	)
	if !start.IsZero() {
		conditions = append(conditions, "ts >= ?")
		args = append(args, FormatTime(start))
	}
	if !end.IsZero() {
		conditions = append(conditions, "ts <= ?")
		args = append(args, FormatTime(end))
	}

	query := `
		SELECT seq, ts, base_currency, total_quote_invested, total_market_value,
		       total_unrealized_pl, total_realized_pl
		FROM snapshot
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []model.Snapshot{}
	bySeq := make(map[int64]int)
	var minSeq, maxSeq int64

	for rows.Next() {
		var (
			s     model.Snapshot
			seq   int64
			tsStr string
		)
		err := rows.Scan(
			&seq,
			&tsStr,
			&s.BaseCurrency,
			&s.TotalQuoteInvested,
			&s.TotalMarketValue,
			&s.TotalUnrealizedPL,
			&s.TotalRealizedPL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		s.Timestamp, err = ParseTime(tsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ts: %w", err)
		}
		s.Positions = []model.PositionView{}

		if len(snapshots) == 0 {
			minSeq = seq
		}
		maxSeq = seq
		bySeq[seq] = len(snapshots)
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	rows.Close()

	if len(snapshots) == 0 {
		return snapshots, nil
	}

	if err := r.loadPositions(ctx, minSeq, maxSeq, func(seq int64, p model.PositionView) {
		if i, ok := bySeq[seq]; ok {
			snapshots[i].Positions = append(snapshots[i].Positions, p)
		}
	}); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// loadPositions streams the positions of snapshots minSeq..maxSeq in
// snapshot and position order.
func (r *SnapshotRepository) loadPositions(
	ctx context.Context,
	minSeq, maxSeq int64,
	callback func(seq int64, p model.PositionView),
) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT snapshot_seq, symbol, open_qty, total_cost, avg_cost, price,
		       market_value, unrealized_pl, realized_pl
		FROM snapshot_position
		WHERE snapshot_seq BETWEEN ? AND ?
		ORDER BY snapshot_seq ASC, position_index ASC
	`, minSeq, maxSeq)
	if err != nil {
		return fmt.Errorf("failed to query snapshot positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq int64
			p   model.PositionView
		)
		err := rows.Scan(
			&seq,
			&p.Symbol,
			&p.Quantity,
			&p.TotalCost,
			&p.AvgCost,
			&p.Price,
			&p.MarketValue,
			&p.UnrealizedPL,
			&p.RealizedPL,
		)
		if err != nil {
			return fmt.Errorf("failed to scan snapshot position: %w", err)
		}
		callback(seq, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating snapshot positions: %w", err)
	}
	return nil
}

// ListRuns retrieves the most recent refresh runs, newest first.
// A limit of zero or less returns all runs.
func (r *SnapshotRepository) ListRuns(ctx context.Context, limit int) ([]model.SnapshotRun, error) {
	query := runSelect + ` ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot runs: %w", err)
	}
	defer rows.Close()

	runs := []model.SnapshotRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a single refresh run by ID.
// Returns apperrors.ErrRunNotFound when no run has that ID.
func (r *SnapshotRepository) GetRun(ctx context.Context, id string) (model.SnapshotRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, runSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SnapshotRun{}, apperrors.ErrRunNotFound
	}
	return run, err
}

// LatestCompletedRun retrieves the run that produced the currently stored history.
// Returns apperrors.ErrRunNotFound when the history was never materialized.
func (r *SnapshotRepository) LatestCompletedRun(ctx context.Context) (model.SnapshotRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx,
		runSelect+` WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		model.RunStatusCompleted,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SnapshotRun{}, apperrors.ErrRunNotFound
	}
	return run, err
}

const runSelect = `
	SELECT id, started_at, finished_at, mode, transaction_count, snapshot_count, status, error
	FROM snapshot_run
`

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanRun(row rowScanner) (model.SnapshotRun, error) {
	var (
		run        model.SnapshotRun
		startedStr string
		finished   sql.NullString
		errMsg     sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&startedStr,
		&finished,
		&run.Mode,
		&run.TransactionCount,
		&run.SnapshotCount,
		&run.Status,
		&errMsg,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SnapshotRun{}, err
	}
	if err != nil {
		return model.SnapshotRun{}, fmt.Errorf("failed to scan snapshot run: %w", err)
	}

	run.StartedAt, err = ParseTime(startedStr)
	if err != nil {
		return model.SnapshotRun{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if finished.Valid {
		t, err := ParseTime(finished.String)
		if err != nil {
			return model.SnapshotRun{}, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

func updateRun(ctx context.Context, db execer, run model.SnapshotRun) error {
	res, err := db.ExecContext(ctx, `
		UPDATE snapshot_run
		SET finished_at = ?, transaction_count = ?, snapshot_count = ?, status = ?, error = ?
		WHERE id = ?
	`,
		formatOptionalTime(run.FinishedAt),
		run.TransactionCount,
		run.SnapshotCount,
		run.Status,
		nullString(run.Error),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update snapshot run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update snapshot run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, run.ID)
	}
	return nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
