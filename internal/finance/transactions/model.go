// Package transactions exposes the append-only ledger. Rows are written only
// by journal posting and reversal; there is no update or delete path.
package transactions

import (
	"time"

	"github.com/google/uuid"
)

// Type marks which side of the ledger a row sits on.
type Type string

const (
	TypeDebit  Type = "Debit"
	TypeCredit Type = "Credit"
)

// Transaction is one immutable ledger row.
type Transaction struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenantId"`
	AccountID       uuid.UUID `json:"accountId"`
	JournalEntryID  uuid.UUID `json:"journalEntryId"`
	TransactionDate time.Time `json:"transactionDate"`
	Type            Type      `json:"type"`
	Amount          float64   `json:"amount"`
	BalanceAfter    float64   `json:"balanceAfter"`
	Description     string    `json:"description,omitempty"`
	ReferenceType   string    `json:"referenceType,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Signed returns the row's effect on an account balance. Credits increase the
// balance and debits decrease it, uniformly for every account type.
func (t Transaction) Signed() float64 {
	if t.Type == TypeCredit {
		return t.Amount
	}
	return -t.Amount
}
