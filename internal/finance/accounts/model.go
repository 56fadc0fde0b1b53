// Package accounts manages the tenant chart of accounts.
package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates chart of accounts categories.
type Type string

const (
	TypeAsset     Type = "Asset"
	TypeLiability Type = "Liability"
	TypeEquity    Type = "Equity"
	TypeRevenue   Type = "Revenue"
	TypeExpense   Type = "Expense"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// Status enumerates account lifecycle states. Accounts are never hard-deleted;
// Inactive blocks new postings, Archived additionally hides the account from
// default listings.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusArchived Status = "Archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	}
	return false
}

// Account models a chart of accounts node. Balances are always derived from
// the transaction ledger, never cached on the account row.
type Account struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           uuid.UUID  `json:"tenantId"`
	Code               string     `json:"code"`
	Name               string     `json:"name"`
	Type               Type       `json:"type"`
	Category           string     `json:"category"`
	ParentID           *uuid.UUID `json:"parentId,omitempty"`
	Description        string     `json:"description,omitempty"`
	OpeningBalance     float64    `json:"openingBalance"`
	OpeningBalanceDate *time.Time `json:"openingBalanceDate,omitempty"`
	Currency           string     `json:"currency"`
	Status             Status     `json:"status"`
	TaxApplicable      bool       `json:"taxApplicable"`
	GSTRate            float64    `json:"gstRate"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// TreeNode is an account with its children, for the hierarchy endpoint.
type TreeNode struct {
	Account
	Children []*TreeNode `json:"children"`
}
