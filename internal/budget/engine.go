package budget

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// VarianceStatus classifies utilisation of one budget line.
type VarianceStatus string

const (
	VarianceOverSpent     VarianceStatus = "OverSpent"
	VarianceNearingLimit  VarianceStatus = "NearingLimit"
	VarianceUnderUtilized VarianceStatus = "UnderUtilized"
	VarianceOnTrack       VarianceStatus = "OnTrack"
)

// VarianceRow is the budget-versus-actual result for one line.
type VarianceRow struct {
	AccountID   uuid.UUID      `json:"accountId"`
	AccountCode string         `json:"accountCode"`
	AccountName string         `json:"accountName"`
	Category    LineCategory   `json:"category"`
	Budgeted    float64        `json:"budgeted"`
	Actual      float64        `json:"actual"`
	Variance    float64        `json:"variance"`
	VariancePct float64        `json:"variancePct"`
	Status      VarianceStatus `json:"status"`
}

// ActualLookup resolves the ledger actual for an account. The actual is the
// sum of every transaction amount on the account, debits and credits alike.
type ActualLookup map[uuid.UUID]float64

// AccountInfo carries display fields for variance rows.
type AccountInfo struct {
	Code string
	Name string
}

// ComputeVariance evaluates every budget line against ledger actuals. Rows
// are ordered by the size of the overrun, worst first.
func ComputeVariance(lines []BudgetLine, actuals ActualLookup, accountInfo map[uuid.UUID]AccountInfo) []VarianceRow {
	rows := make([]VarianceRow, 0, len(lines))
	for _, line := range lines {
		actual := round2(actuals[line.AccountID])
		row := VarianceRow{
			AccountID: line.AccountID,
			Category:  line.Category,
			Budgeted:  round2(line.TotalBudget),
			Actual:    actual,
		}
		if info, ok := accountInfo[line.AccountID]; ok {
			row.AccountCode = info.Code
			row.AccountName = info.Name
		}
		row.Variance = round2(row.Budgeted - row.Actual)
		if row.Budgeted != 0 {
			row.VariancePct = round2(row.Variance / row.Budgeted * 100)
		}
		row.Status = classify(row)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Variance < rows[j].Variance })
	return rows
}

// classify applies the utilisation rules in a fixed order: an overrun always
// wins, then proximity to the limit, then zero utilisation.
func classify(row VarianceRow) VarianceStatus {
	switch {
	case row.Variance < 0:
		return VarianceOverSpent
	case row.VariancePct < 20:
		return VarianceNearingLimit
	case row.Actual == 0:
		return VarianceUnderUtilized
	default:
		return VarianceOnTrack
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
