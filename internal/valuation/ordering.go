package valuation

import (
	"slices"

	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// OrderTransactions returns a copy of txs sorted ascending by timestamp.
// The sort is stable: transactions sharing a timestamp keep their feed order,
// which makes the resulting snapshot sequence deterministic. txs is not modified.
func OrderTransactions(txs []model.Transaction) []model.Transaction {
	ordered := slices.Clone(txs)
	slices.SortStableFunc(ordered, func(a, b model.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return ordered
}
