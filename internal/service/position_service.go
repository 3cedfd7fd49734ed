package service

import (
	"context"
	"fmt"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// PositionService exposes the separately published current positions summary.
// The summary is display-only; it is never reconciled with the computed history.
type PositionService struct {
	source feed.Source
}

// NewPositionService creates a new PositionService reading from source.
func NewPositionService(source feed.Source) *PositionService {
	return &PositionService{source: source}
}

// GetCurrentPositions returns the current positions summary as published.
func (s *PositionService) GetCurrentPositions(ctx context.Context) (model.CurrentPositions, error) {
	cp, err := s.source.CurrentPositions(ctx)
	if err != nil {
		return model.CurrentPositions{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchPositions, err)
	}
	return cp, nil
}
