package service

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ndewijer/accumulation-tracker-backend/internal/database"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
	"github.com/ndewijer/accumulation-tracker-backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db               *sql.DB
	mode             valuation.Mode
	scheduledRefresh bool
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, mode valuation.Mode, scheduledRefresh bool) *SystemService {
	return &SystemService{
		db:               db,
		mode:             mode,
		scheduledRefresh: scheduledRefresh,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion reports the application version, the applied schema version and
// the enabled features.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	dbVersion, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	return model.VersionInfo{
		AppVersion:     version.Version,
		DbVersion:      strconv.FormatInt(dbVersion, 10),
		AccountingMode: string(s.mode),
		Features: map[string]bool{
			"materialized_history": true,
			"scheduled_refresh":    s.scheduledRefresh,
			"realized_pl":          s.mode == valuation.ModeSideAware,
		},
	}, nil
}
