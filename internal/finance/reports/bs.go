package reports

import (
	"sort"
	"time"

	"github.com/campusledger/campusledger/internal/finance/accounts"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    float64               `json:"total"`
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	AsOf                      string              `json:"asOf"`
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalLiabilitiesAndEquity float64             `json:"totalLiabilitiesAndEquity"`
}

// BuildBalanceSheet partitions account balances into assets, liabilities, and
// equity sections. Revenue and expense accounts are excluded.
func BuildBalanceSheet(balances []AccountBalance, asOf time.Time) BalanceSheet {
	bs := BalanceSheet{
		AsOf:        asOf.Format("2006-01-02"),
		Assets:      BalanceSheetSection{Label: "Assets"},
		Liabilities: BalanceSheetSection{Label: "Liabilities"},
		Equity:      BalanceSheetSection{Label: "Equity"},
	}
	for _, acc := range balances {
		row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: acc.Closing()}
		switch acc.Type {
		case accounts.TypeAsset:
			bs.Assets.Accounts = append(bs.Assets.Accounts, row)
			bs.Assets.Total += row.Balance
		case accounts.TypeLiability:
			bs.Liabilities.Accounts = append(bs.Liabilities.Accounts, row)
			bs.Liabilities.Total += row.Balance
		case accounts.TypeEquity:
			bs.Equity.Accounts = append(bs.Equity.Accounts, row)
			bs.Equity.Total += row.Balance
		}
	}
	for _, section := range []*BalanceSheetSection{&bs.Assets, &bs.Liabilities, &bs.Equity} {
		sort.Slice(section.Accounts, func(i, j int) bool { return section.Accounts[i].Code < section.Accounts[j].Code })
		section.Total = round2(section.Total)
	}
	bs.TotalLiabilitiesAndEquity = round2(bs.Liabilities.Total + bs.Equity.Total)
	return bs
}
