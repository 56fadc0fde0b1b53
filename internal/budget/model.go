// Package budget manages annual budgets and budget-versus-actual variance.
package budget

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the budget workflow. Transitions are linear; Rejected is
// reachable only from Draft and Submitted.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusActive    Status = "Active"
	StatusRejected  Status = "Rejected"
	StatusClosed    Status = "Closed"
)

// LineCategory splits budget lines by nature.
type LineCategory string

const (
	CategoryIncome  LineCategory = "Income"
	CategoryExpense LineCategory = "Expense"
)

// Budget is an annual plan for a tenant.
type Budget struct {
	ID            uuid.UUID    `json:"id"`
	TenantID      uuid.UUID    `json:"tenantId"`
	Name          string       `json:"name"`
	FinancialYear string       `json:"financialYear"`
	BudgetType    string       `json:"budgetType"`
	Status        Status       `json:"status"`
	Lines         []BudgetLine `json:"lines"`
	TotalIncome   float64      `json:"totalIncome"`
	TotalExpense  float64      `json:"totalExpense"`
	NetBudget     float64      `json:"netBudget"`
	CreatedBy     uuid.UUID    `json:"createdBy"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// BudgetLine allocates an amount to one account, split across quarters.
type BudgetLine struct {
	ID          uuid.UUID    `json:"id"`
	BudgetID    uuid.UUID    `json:"budgetId"`
	AccountID   uuid.UUID    `json:"accountId"`
	Category    LineCategory `json:"category"`
	Quarters    [4]float64   `json:"quarters"`
	TotalBudget float64      `json:"totalBudget"`
}

// SnapshotStatus enumerates the async snapshot lifecycle.
type SnapshotStatus string

const (
	SnapshotPending    SnapshotStatus = "PENDING"
	SnapshotInProgress SnapshotStatus = "IN_PROGRESS"
	SnapshotReady      SnapshotStatus = "READY"
	SnapshotFailed     SnapshotStatus = "FAILED"
)

// VarianceSnapshot stores metadata and payload for one variance computation.
type VarianceSnapshot struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenantId"`
	BudgetID    uuid.UUID      `json:"budgetId"`
	Status      SnapshotStatus `json:"status"`
	GeneratedAt *time.Time     `json:"generatedAt,omitempty"`
	Error       string         `json:"error,omitempty"`
	Rows        []VarianceRow  `json:"rows,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// transitions lists the allowed workflow edges.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted, StatusRejected},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusActive},
	StatusActive:    {StatusClosed},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
