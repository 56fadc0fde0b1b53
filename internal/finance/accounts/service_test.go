package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusledger/campusledger/internal/shared"
)

type memoryRepo struct {
	accounts map[uuid.UUID]*Account
	codes    map[string]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[uuid.UUID]*Account{}, codes: map[string]bool{}}
}

func (r *memoryRepo) Insert(_ context.Context, account *Account) error {
	if r.codes[account.Code] {
		return shared.ErrDuplicateAccountCode
	}
	clone := *account
	r.accounts[account.ID] = &clone
	r.codes[account.Code] = true
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*Account, error) {
	if account, ok := r.accounts[id]; ok && account.TenantID == tenantID {
		clone := *account
		return &clone, nil
	}
	return nil, shared.ErrAccountNotFound
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]Account, int, error) {
	var out []Account
	for _, account := range r.accounts {
		if account.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && account.Status != filter.Status {
			continue
		}
		out = append(out, *account)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListAll(_ context.Context, tenantID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, account := range r.accounts {
		if account.TenantID == tenantID && account.Status != StatusArchived {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, account *Account) error {
	if _, ok := r.accounts[account.ID]; !ok {
		return shared.ErrAccountNotFound
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *memoryRepo) SetStatus(_ context.Context, tenantID, id uuid.UUID, status Status) error {
	account, ok := r.accounts[id]
	if !ok || account.TenantID != tenantID {
		return shared.ErrAccountNotFound
	}
	account.Status = status
	return nil
}

func testIdentity() shared.Identity {
	return shared.Identity{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     shared.RoleAccountant,
	}
}

func TestCreateAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	identity := testIdentity()

	account, err := svc.Create(context.Background(), identity, CreateRequest{
		Code:           "1001",
		Name:           "Cash in Hand",
		Type:           "Asset",
		Category:       "Current Assets",
		OpeningBalance: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, identity.TenantID, account.TenantID)
	assert.Equal(t, StatusActive, account.Status)
	assert.Equal(t, "INR", account.Currency)

	t.Run("duplicate code", func(t *testing.T) {
		_, err := svc.Create(context.Background(), identity, CreateRequest{
			Code: "1001", Name: "Duplicate", Type: "Asset", Category: "Current Assets",
		})
		assert.ErrorIs(t, err, shared.ErrDuplicateAccountCode)
	})

	t.Run("missing parent", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Create(context.Background(), identity, CreateRequest{
			Code: "1002", Name: "Petty Cash", Type: "Asset", Category: "Current Assets",
			ParentID: &missing,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidAccount)
	})
}

func TestAccountTypeValues(t *testing.T) {
	for _, typ := range []Type{TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense} {
		assert.True(t, typ.Valid(), "type %s", typ)
	}
	assert.Equal(t, Type("Revenue"), TypeRevenue, "revenue accounts use the Revenue wire value")
	for _, typ := range []Type{"Income", "asset", ""} {
		assert.False(t, Type(typ).Valid(), "type %q", typ)
	}
}

func TestUpdateParentCycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	identity := testIdentity()

	root, err := svc.Create(context.Background(), identity, CreateRequest{
		Code: "1000", Name: "Assets", Type: "Asset", Category: "Root",
	})
	require.NoError(t, err)
	child, err := svc.Create(context.Background(), identity, CreateRequest{
		Code: "1100", Name: "Bank", Type: "Asset", Category: "Current Assets", ParentID: &root.ID,
	})
	require.NoError(t, err)

	t.Run("self parent", func(t *testing.T) {
		_, err := svc.Update(context.Background(), identity, root.ID, UpdateRequest{ParentID: &root.ID})
		assert.ErrorIs(t, err, shared.ErrParentCycle)
	})

	t.Run("descendant parent", func(t *testing.T) {
		_, err := svc.Update(context.Background(), identity, root.ID, UpdateRequest{ParentID: &child.ID})
		assert.ErrorIs(t, err, shared.ErrParentCycle)
	})

	t.Run("valid reparent", func(t *testing.T) {
		other, err := svc.Create(context.Background(), identity, CreateRequest{
			Code: "2000", Name: "Reserves", Type: "Equity", Category: "Root",
		})
		require.NoError(t, err)
		updated, err := svc.Update(context.Background(), identity, child.ID, UpdateRequest{ParentID: &other.ID})
		require.NoError(t, err)
		assert.Equal(t, other.ID, *updated.ParentID)
	})
}

func TestHierarchy(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	identity := testIdentity()

	root, err := svc.Create(context.Background(), identity, CreateRequest{
		Code: "1000", Name: "Assets", Type: "Asset", Category: "Root",
	})
	require.NoError(t, err)
	childA, err := svc.Create(context.Background(), identity, CreateRequest{
		Code: "1200", Name: "Receivables", Type: "Asset", Category: "Current Assets", ParentID: &root.ID,
	})
	require.NoError(t, err)
	childB, err := svc.Create(context.Background(), identity, CreateRequest{
		Code: "1100", Name: "Bank", Type: "Asset", Category: "Current Assets", ParentID: &root.ID,
	})
	require.NoError(t, err)

	tree, err := svc.Tree(context.Background(), identity)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, root.ID, tree[0].ID)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, childB.ID, tree[0].Children[0].ID)
	assert.Equal(t, childA.ID, tree[0].Children[1].ID)
}

func TestStatusTransitions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	identity := testIdentity()
	svc.WithNow(func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) })

	account, err := svc.Create(context.Background(), identity, CreateRequest{
		Code: "5000", Name: "Stationery", Type: "Expense", Category: "Operating",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), identity, account.ID))
	got, err := svc.Get(context.Background(), identity, account.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, got.Status)

	require.NoError(t, svc.Archive(context.Background(), identity, account.ID))
	got, err = svc.Get(context.Background(), identity, account.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, got.Status)

	t.Run("unknown account", func(t *testing.T) {
		err := svc.Deactivate(context.Background(), identity, uuid.New())
		assert.ErrorIs(t, err, shared.ErrAccountNotFound)
	})
}
