package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/repository"
	"github.com/ndewijer/accumulation-tracker-backend/internal/service"
	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
)

// TestOptions returns valuation options with a fixed clock at BaseTime.
func TestOptions(mode valuation.Mode) valuation.Options {
	opts := valuation.DefaultOptions()
	opts.Mode = mode
	opts.Now = func() time.Time { return BaseTime }
	return opts
}

func NewTestHistoryService(t *testing.T, source feed.Source, mode valuation.Mode) *service.HistoryService {
	t.Helper()

	return service.NewHistoryService(source, TestOptions(mode), zerolog.Nop())
}

func NewTestMaterializedService(t *testing.T, db *sql.DB, source feed.Source, mode valuation.Mode) *service.MaterializedService {
	t.Helper()

	return service.NewMaterializedService(
		repository.NewSnapshotRepository(db),
		NewTestHistoryService(t, source, mode),
		zerolog.Nop(),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, valuation.ModeCompat, true)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}
