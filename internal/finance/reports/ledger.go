package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/finance/transactions"
)

// LedgerRow is one movement in an account ledger with its running balance.
type LedgerRow struct {
	TransactionID  uuid.UUID         `json:"transactionId"`
	JournalEntryID uuid.UUID         `json:"journalEntryId"`
	Date           time.Time         `json:"date"`
	Description    string            `json:"description,omitempty"`
	Type           transactions.Type `json:"type"`
	Amount         float64           `json:"amount"`
	RunningBalance float64           `json:"runningBalance"`
}

// AccountLedger is the full statement for one account.
type AccountLedger struct {
	AccountID uuid.UUID   `json:"accountId"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Opening   float64     `json:"opening"`
	Rows      []LedgerRow `json:"rows"`
	Closing   float64     `json:"closing"`
}

// BuildAccountLedger walks transactions in ascending date order, carrying a
// running balance forward from the opening balance. Credits add and debits
// subtract.
func BuildAccountLedger(accountID uuid.UUID, code, name string, opening float64, txns []transactions.Transaction) AccountLedger {
	ledger := AccountLedger{
		AccountID: accountID,
		Code:      code,
		Name:      name,
		Opening:   opening,
		Rows:      make([]LedgerRow, 0, len(txns)),
	}
	running := opening
	for _, txn := range txns {
		running = round2(running + txn.Signed())
		ledger.Rows = append(ledger.Rows, LedgerRow{
			TransactionID:  txn.ID,
			JournalEntryID: txn.JournalEntryID,
			Date:           txn.TransactionDate,
			Description:    txn.Description,
			Type:           txn.Type,
			Amount:         txn.Amount,
			RunningBalance: running,
		})
	}
	ledger.Closing = running
	return ledger
}
