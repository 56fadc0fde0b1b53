// Package reports derives financial statements from the transaction ledger.
// The builders are pure functions over aggregated ledger rows; the service
// layers Redis caching on top.
package reports

import (
	"math"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/transactions"
)

// AccountBalance models an account with its aggregated ledger activity.
type AccountBalance struct {
	AccountID uuid.UUID     `json:"accountId"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	Type      accounts.Type `json:"type"`
	Opening   float64       `json:"opening"`
	Debit     float64       `json:"debit"`
	Credit    float64       `json:"credit"`
}

// Closing computes the closing balance. Credits add and debits subtract for
// every account type; the convention is applied uniformly across the ledger.
func (a AccountBalance) Closing() float64 {
	return round2(a.Opening + a.Credit - a.Debit)
}

// BalanceSummary is the result of folding ledger rows over an opening balance.
type BalanceSummary struct {
	Opening     float64 `json:"opening"`
	DebitTotal  float64 `json:"debitTotal"`
	CreditTotal float64 `json:"creditTotal"`
	Closing     float64 `json:"closing"`
}

// CalculateBalance folds ledger rows into a balance summary. It never mutates
// its inputs.
func CalculateBalance(txns []transactions.Transaction, opening float64) BalanceSummary {
	summary := BalanceSummary{Opening: opening}
	for _, txn := range txns {
		if txn.Type == transactions.TypeDebit {
			summary.DebitTotal += txn.Amount
		} else {
			summary.CreditTotal += txn.Amount
		}
	}
	summary.DebitTotal = round2(summary.DebitTotal)
	summary.CreditTotal = round2(summary.CreditTotal)
	summary.Closing = round2(opening + summary.CreditTotal - summary.DebitTotal)
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
