package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/campusledger/campusledger/internal/finance/accounts"
)

// TrialBalanceRow is one account line in the trial balance.
type TrialBalanceRow struct {
	Code    string        `json:"code"`
	Name    string        `json:"name"`
	Type    accounts.Type `json:"type"`
	Opening float64       `json:"opening"`
	Debit   float64       `json:"debit"`
	Credit  float64       `json:"credit"`
	Closing float64       `json:"closing"`
}

// TrialBalance lists every active account with its balances as of a date.
type TrialBalance struct {
	AsOf        string            `json:"asOf"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  float64           `json:"totalDebit"`
	TotalCredit float64           `json:"totalCredit"`
	Balanced    bool              `json:"balanced"`
}

// BuildTrialBalance converts account balances into trial balance rows sorted
// by account code.
func BuildTrialBalance(balances []AccountBalance, asOf time.Time) TrialBalance {
	tb := TrialBalance{AsOf: asOf.Format("2006-01-02")}
	for _, acc := range balances {
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			Code:    acc.Code,
			Name:    acc.Name,
			Type:    acc.Type,
			Opening: acc.Opening,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Closing: acc.Closing(),
		})
		tb.TotalDebit += acc.Debit
		tb.TotalCredit += acc.Credit
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.TotalDebit = round2(tb.TotalDebit)
	tb.TotalCredit = round2(tb.TotalCredit)
	tb.Balanced = fmt.Sprintf("%.2f", tb.TotalDebit) == fmt.Sprintf("%.2f", tb.TotalCredit)
	return tb
}
