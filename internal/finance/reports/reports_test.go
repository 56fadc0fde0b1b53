package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/transactions"
	_ "github.com/campusledger/campusledger/testing"
)

func TestCalculateBalance(t *testing.T) {
	txns := []transactions.Transaction{
		{Type: transactions.TypeDebit, Amount: 200},
		{Type: transactions.TypeCredit, Amount: 50},
		{Type: transactions.TypeDebit, Amount: 25.5},
	}

	summary := CalculateBalance(txns, 1000)
	assert.Equal(t, 1000.0, summary.Opening)
	assert.Equal(t, 225.5, summary.DebitTotal)
	assert.Equal(t, 50.0, summary.CreditTotal)
	assert.Equal(t, 824.5, summary.Closing)

	t.Run("inputs are not mutated", func(t *testing.T) {
		again := CalculateBalance(txns, 1000)
		assert.Equal(t, summary, again)
	})

	t.Run("empty ledger keeps the opening", func(t *testing.T) {
		summary := CalculateBalance(nil, 42)
		assert.Equal(t, 42.0, summary.Closing)
	})
}

func TestBuildTrialBalance(t *testing.T) {
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("worked example", func(t *testing.T) {
		// An account opening at 1000 with a single 200 debit closes at
		// 800 under the credit-minus-debit convention.
		tb := BuildTrialBalance([]AccountBalance{
			{Code: "1001", Name: "Cash", Type: accounts.TypeAsset, Opening: 1000, Debit: 200},
		}, asOf)
		require.Len(t, tb.Rows, 1)
		assert.Equal(t, 800.0, tb.Rows[0].Closing)
		assert.Equal(t, "2026-03-31", tb.AsOf)
	})

	tb := BuildTrialBalance([]AccountBalance{
		{Code: "4001", Name: "Tuition Fees", Type: accounts.TypeRevenue, Debit: 0, Credit: 900},
		{Code: "1001", Name: "Cash", Type: accounts.TypeAsset, Opening: 1000, Debit: 200, Credit: 500},
		{Code: "5001", Name: "Salaries", Type: accounts.TypeExpense, Debit: 700, Credit: 0},
	}, asOf)
	require.Len(t, tb.Rows, 3)
	assert.Equal(t, "1001", tb.Rows[0].Code, "rows sorted by code")
	assert.Equal(t, 900.0, tb.TotalDebit)
	assert.Equal(t, 1400.0, tb.TotalCredit)
	assert.False(t, tb.Balanced)
}

func TestBuildAccountLedger(t *testing.T) {
	accountID := uuid.New()
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	txns := []transactions.Transaction{
		{ID: uuid.New(), TransactionDate: base, Type: transactions.TypeDebit, Amount: 200},
		{ID: uuid.New(), TransactionDate: base.AddDate(0, 0, 5), Type: transactions.TypeCredit, Amount: 350},
		{ID: uuid.New(), TransactionDate: base.AddDate(0, 0, 9), Type: transactions.TypeDebit, Amount: 50},
	}

	ledger := BuildAccountLedger(accountID, "1001", "Cash", 1000, txns)
	require.Len(t, ledger.Rows, 3)
	assert.Equal(t, 800.0, ledger.Rows[0].RunningBalance)
	assert.Equal(t, 1150.0, ledger.Rows[1].RunningBalance)
	assert.Equal(t, 1100.0, ledger.Rows[2].RunningBalance)
	assert.Equal(t, 1100.0, ledger.Closing)
	assert.Equal(t, 1000.0, ledger.Opening)
}

func TestBuildBalanceSheet(t *testing.T) {
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	bs := BuildBalanceSheet([]AccountBalance{
		{Code: "1001", Name: "Cash", Type: accounts.TypeAsset, Opening: 1000, Credit: 200},
		{Code: "2001", Name: "Fees Received in Advance", Type: accounts.TypeLiability, Credit: 400},
		{Code: "3001", Name: "General Fund", Type: accounts.TypeEquity, Opening: 500},
		{Code: "4001", Name: "Tuition Fees", Type: accounts.TypeRevenue, Credit: 900},
	}, asOf)

	assert.Equal(t, 1200.0, bs.Assets.Total)
	assert.Equal(t, 400.0, bs.Liabilities.Total)
	assert.Equal(t, 500.0, bs.Equity.Total)
	assert.Equal(t, 900.0, bs.TotalLiabilitiesAndEquity)
	assert.Len(t, bs.Assets.Accounts, 1, "income accounts stay out of the balance sheet")
}

func TestBuildIncomeStatement(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	is := BuildIncomeStatement([]AccountBalance{
		{Code: "4001", Name: "Tuition Fees", Type: accounts.TypeRevenue, Credit: 5000},
		{Code: "4002", Name: "Transport Fees", Type: accounts.TypeRevenue, Debit: 120, Credit: 20},
		{Code: "5001", Name: "Salaries", Type: accounts.TypeExpense, Debit: 3000},
	}, start, end)

	assert.Equal(t, 5000.0, is.Income.Accounts[0].Amount)
	// Net-debit income accounts still contribute a positive amount.
	assert.Equal(t, 100.0, is.Income.Accounts[1].Amount)
	assert.Equal(t, 5100.0, is.Income.Total)
	assert.Equal(t, 3000.0, is.Expense.Total)
	assert.Equal(t, 2100.0, is.NetResult)
}

func TestExportTrialBalanceXLSX(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1001", Name: "Cash", Type: accounts.TypeAsset, Opening: 12500, Debit: 1200, Credit: 300},
	}, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))

	payload, err := ExportTrialBalanceXLSX(tb)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, payload[:2])
}
