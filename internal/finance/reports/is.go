package reports

import (
	"math"
	"sort"
	"time"

	"github.com/campusledger/campusledger/internal/finance/accounts"
)

// IncomeStatementAccount represents an income or expense account summary.
type IncomeStatementAccount struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label    string                   `json:"label"`
	Accounts []IncomeStatementAccount `json:"accounts"`
	Total    float64                  `json:"total"`
}

// IncomeStatement is the structured income and expenditure report.
type IncomeStatement struct {
	StartDate string                 `json:"startDate"`
	EndDate   string                 `json:"endDate"`
	Income    IncomeStatementSection `json:"income"`
	Expense   IncomeStatementSection `json:"expense"`
	NetResult float64                `json:"netResult"`
}

// BuildIncomeStatement aggregates income and expense activity over a date
// range. Each account contributes the absolute value of its net movement,
// so contra postings within a section do not offset each other.
func BuildIncomeStatement(balances []AccountBalance, start, end time.Time) IncomeStatement {
	is := IncomeStatement{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Income:    IncomeStatementSection{Label: "Income"},
		Expense:   IncomeStatementSection{Label: "Expense"},
	}
	for _, acc := range balances {
		amount := round2(math.Abs(acc.Credit - acc.Debit))
		row := IncomeStatementAccount{Code: acc.Code, Name: acc.Name, Amount: amount}
		switch acc.Type {
		case accounts.TypeRevenue:
			is.Income.Accounts = append(is.Income.Accounts, row)
			is.Income.Total += amount
		case accounts.TypeExpense:
			is.Expense.Accounts = append(is.Expense.Accounts, row)
			is.Expense.Total += amount
		}
	}
	for _, section := range []*IncomeStatementSection{&is.Income, &is.Expense} {
		sort.Slice(section.Accounts, func(i, j int) bool { return section.Accounts[i].Code < section.Accounts[j].Code })
		section.Total = round2(section.Total)
	}
	is.NetResult = round2(is.Income.Total - is.Expense.Total)
	return is
}
