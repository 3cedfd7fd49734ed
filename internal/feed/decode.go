package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// maxLineSize bounds a single feed record. Transaction notes can be long.
const maxLineSize = 1024 * 1024

// DecodeTransactions parses a line-delimited JSON transaction feed.
// Blank lines are skipped. Records are returned in feed order.
func DecodeTransactions(r io.Reader) ([]model.Transaction, error) {
	txs := []model.Transaction{}
	err := decodeLines(r, func(line int, data []byte) error {
		var tx model.Transaction
		if err := json.Unmarshal(data, &tx); err != nil {
			return err
		}
		if tx.Symbol == "" {
			return fmt.Errorf("symbol: %w", apperrors.ErrMissingRequiredField)
		}
		if tx.Timestamp.IsZero() {
			return fmt.Errorf("ts: %w", apperrors.ErrMissingRequiredField)
		}
		txs = append(txs, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// DecodePrices parses a line-delimited JSON price feed.
// Blank lines are skipped. Records are returned in feed order.
func DecodePrices(r io.Reader) ([]model.PricePoint, error) {
	points := []model.PricePoint{}
	err := decodeLines(r, func(line int, data []byte) error {
		var p model.PricePoint
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.Symbol == "" {
			return fmt.Errorf("symbol: %w", apperrors.ErrMissingRequiredField)
		}
		points = append(points, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// DecodeCurrentPositions parses the current positions summary document.
func DecodeCurrentPositions(r io.Reader) (model.CurrentPositions, error) {
	var cp model.CurrentPositions
	if err := json.NewDecoder(r).Decode(&cp); err != nil {
		return model.CurrentPositions{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToParseFeed, err)
	}
	if cp.Positions == nil {
		cp.Positions = []model.PositionSummary{}
	}
	return cp, nil
}

func decodeLines(r io.Reader, fn func(line int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := fn(line, data); err != nil {
			return fmt.Errorf("%w: line %d: %w", apperrors.ErrFailedToParseFeed, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: line %d: %w", apperrors.ErrFailedToParseFeed, line+1, err)
	}
	return nil
}
