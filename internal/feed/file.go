package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// FileSource reads the feeds from a local directory.
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource reading from dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Transactions reads and decodes transactions.ndjson.
func (s *FileSource) Transactions(_ context.Context) ([]model.Transaction, error) {
	f, err := s.open(TransactionsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTransactions(f)
}

// Prices reads and decodes prices.ndjson.
func (s *FileSource) Prices(_ context.Context) ([]model.PricePoint, error) {
	f, err := s.open(PricesFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePrices(f)
}

// CurrentPositions reads and decodes positions_current.json.
func (s *FileSource) CurrentPositions(_ context.Context) (model.CurrentPositions, error) {
	f, err := s.open(CurrentPositionsFile)
	if err != nil {
		return model.CurrentPositions{}, err
	}
	defer f.Close()
	return DecodeCurrentPositions(f)
}

func (s *FileSource) open(name string) (*os.File, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFeedNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
