// Package journals implements the double-entry journal lifecycle. Entries move
// Draft -> Pending -> Posted and can end Rejected or Reversed; there is no path
// back to Draft.
package journals

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates journal entry lifecycle states.
type Status string

const (
	StatusDraft    Status = "Draft"
	StatusPending  Status = "Pending"
	StatusPosted   Status = "Posted"
	StatusRejected Status = "Rejected"
	StatusReversed Status = "Reversed"
)

// EntryType enumerates journal entry kinds.
type EntryType string

const (
	EntryTypeJournal    EntryType = "Journal"
	EntryTypePayment    EntryType = "Payment"
	EntryTypeReceipt    EntryType = "Receipt"
	EntryTypeContra     EntryType = "ContraEntry"
	EntryTypeAdjustment EntryType = "Adjustment"
)

// Line is one side of a journal entry. Exactly one of Debit or Credit is
// non-zero.
type Line struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"accountId"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
	Description string    `json:"description,omitempty"`
}

// JournalEntry is a balanced set of debit and credit lines.
type JournalEntry struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenantId"`
	EntryNumber      string     `json:"entryNumber"`
	EntryDate        time.Time  `json:"entryDate"`
	EntryType        EntryType  `json:"entryType"`
	ReferenceNumber  string     `json:"referenceNumber,omitempty"`
	Description      string     `json:"description,omitempty"`
	Lines            []Line     `json:"lines"`
	TotalDebit       float64    `json:"totalDebit"`
	TotalCredit      float64    `json:"totalCredit"`
	ApprovalRequired bool       `json:"approvalRequired"`
	ApprovedBy       *uuid.UUID `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	Status           Status     `json:"status"`
	PostedAt         *time.Time `json:"postedAt,omitempty"`
	PostedBy         *uuid.UUID `json:"postedBy,omitempty"`
	ReversedAt       *time.Time `json:"reversedAt,omitempty"`
	ReversedBy       *uuid.UUID `json:"reversedBy,omitempty"`
	ReversalReason   string     `json:"reversalReason,omitempty"`
	CreatedBy        uuid.UUID  `json:"createdBy"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Editable reports whether the entry may still be modified.
func (e *JournalEntry) Editable() bool {
	return e.Status == StatusDraft || e.Status == StatusPending
}
