package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/shared"
)

// User models an application login tied to a tenant.
type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
