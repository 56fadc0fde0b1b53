package journals

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/shared"
)

// LineInput describes one requested journal line.
type LineInput struct {
	AccountID   uuid.UUID `json:"accountId" validate:"required"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
	Description string    `json:"description" validate:"max=500"`
}

// CreateRequest is the payload for creating a journal entry.
type CreateRequest struct {
	EntryNumber      string      `json:"entryNumber" validate:"required,max=40"`
	EntryDate        time.Time   `json:"entryDate" validate:"required"`
	EntryType        string      `json:"entryType" validate:"required,oneof=Journal Payment Receipt ContraEntry Adjustment"`
	ReferenceNumber  string      `json:"referenceNumber" validate:"max=60"`
	Description      string      `json:"description" validate:"max=500"`
	ApprovalRequired bool        `json:"approvalRequired"`
	Lines            []LineInput `json:"lines" validate:"required,min=2,dive"`
}

// UpdateRequest is the payload for updating a Draft or Pending entry. Nil
// fields are left unchanged; non-nil Lines replace the line set.
type UpdateRequest struct {
	EntryDate       *time.Time  `json:"entryDate"`
	ReferenceNumber *string     `json:"referenceNumber" validate:"omitempty,max=60"`
	Description     *string     `json:"description" validate:"omitempty,max=500"`
	Lines           []LineInput `json:"lines" validate:"omitempty,min=2,dive"`
}

// ListFilter narrows journal listings.
type ListFilter struct {
	TenantID  uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Status    Status
	EntryType EntryType
	Page      int
	PerPage   int
}

// ReverseRequest carries the reversal reason.
type ReverseRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// validateLines enforces the double-entry invariant: at least two lines, no
// negative amounts, no line carrying both sides, and total debit equal to
// total credit at two decimal places.
func validateLines(lines []LineInput) (totalDebit, totalCredit float64, err error) {
	if len(lines) < 2 {
		return 0, 0, shared.ErrInvalidJournalEntry.WithMessage("journal entry requires at least two lines")
	}
	for idx, line := range lines {
		if line.AccountID == uuid.Nil {
			return 0, 0, shared.ErrInvalidJournalEntry.WithMessage("line %d is missing an account", idx+1)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return 0, 0, shared.ErrInvalidJournalEntry.WithMessage("line %d has a negative amount", idx+1)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return 0, 0, shared.ErrInvalidJournalEntry.WithMessage("line %d cannot carry both debit and credit", idx+1)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return 0, 0, shared.ErrInvalidJournalEntry.WithMessage("line %d has no amount", idx+1)
		}
		totalDebit += line.Debit
		totalCredit += line.Credit
	}
	if fmt.Sprintf("%.2f", totalDebit) != fmt.Sprintf("%.2f", totalCredit) {
		return 0, 0, shared.ErrInvalidJournalEntry
	}
	return round2(totalDebit), round2(totalCredit), nil
}

func toLines(inputs []LineInput) []Line {
	out := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Line{
			ID:          uuid.New(),
			AccountID:   in.AccountID,
			Debit:       round2(in.Debit),
			Credit:      round2(in.Credit),
			Description: in.Description,
		})
	}
	return out
}
