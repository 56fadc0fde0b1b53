package shared

import (
	"context"

	"github.com/google/uuid"
)

// Role enumerates the access levels carried in auth tokens.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleFinanceManager Role = "finance_manager"
	RoleAccountant     Role = "accountant"
	RoleViewer         Role = "viewer"
)

// Identity describes the authenticated caller. Every request to a tenant-scoped
// route carries one; TenantID scopes all repository queries.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
	Email    string
}

// CanWrite reports whether the role may perform mutating finance operations.
func (i Identity) CanWrite() bool {
	switch i.Role {
	case RoleAdmin, RoleFinanceManager, RoleAccountant:
		return true
	}
	return false
}

// CanApprove reports whether the role may approve entries and budgets.
func (i Identity) CanApprove() bool {
	return i.Role == RoleAdmin || i.Role == RoleFinanceManager
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
