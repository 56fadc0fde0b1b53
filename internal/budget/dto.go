package budget

import (
	"github.com/google/uuid"
)

// LineInput describes one requested budget line. The line total is the sum of
// its quarterly allocations.
type LineInput struct {
	AccountID uuid.UUID  `json:"accountId" validate:"required"`
	Category  string     `json:"category" validate:"required,oneof=Income Expense"`
	Quarters  [4]float64 `json:"quarters"`
}

// CreateRequest is the payload for creating a budget.
type CreateRequest struct {
	Name          string      `json:"name" validate:"required,max=120"`
	FinancialYear string      `json:"financialYear" validate:"required,max=12"`
	BudgetType    string      `json:"budgetType" validate:"required,max=40"`
	Lines         []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// TransitionRequest names the target workflow status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=Submitted Approved Active Rejected Closed"`
}

// ListFilter narrows budget listings.
type ListFilter struct {
	TenantID      uuid.UUID
	FinancialYear string
	Status        Status
	Page          int
	PerPage       int
}
