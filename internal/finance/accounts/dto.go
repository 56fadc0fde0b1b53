package accounts

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest is the payload for creating an account.
type CreateRequest struct {
	Code               string     `json:"code" validate:"required,max=20"`
	Name               string     `json:"name" validate:"required,max=120"`
	Type               string     `json:"type" validate:"required,oneof=Asset Liability Equity Revenue Expense"`
	Category           string     `json:"category" validate:"required,max=60"`
	ParentID           *uuid.UUID `json:"parentId"`
	Description        string     `json:"description" validate:"max=500"`
	OpeningBalance     float64    `json:"openingBalance"`
	OpeningBalanceDate *time.Time `json:"openingBalanceDate"`
	Currency           string     `json:"currency" validate:"omitempty,len=3"`
	TaxApplicable      bool       `json:"taxApplicable"`
	GSTRate            float64    `json:"gstRate" validate:"gte=0,lte=100"`
}

// UpdateRequest is the payload for updating an account. Nil fields are left
// unchanged.
type UpdateRequest struct {
	Name          *string    `json:"name" validate:"omitempty,max=120"`
	Category      *string    `json:"category" validate:"omitempty,max=60"`
	ParentID      *uuid.UUID `json:"parentId"`
	ClearParent   bool       `json:"clearParent"`
	Description   *string    `json:"description" validate:"omitempty,max=500"`
	TaxApplicable *bool      `json:"taxApplicable"`
	GSTRate       *float64   `json:"gstRate" validate:"omitempty,gte=0,lte=100"`
}

// ListFilter narrows account listings.
type ListFilter struct {
	TenantID uuid.UUID
	Type     Type
	Category string
	Status   Status
	Search   string
	Page     int
	PerPage  int
}
