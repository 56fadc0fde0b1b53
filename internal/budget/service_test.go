package budget

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
	budgets   map[uuid.UUID]*Budget
	snapshots map[uuid.UUID]*VarianceSnapshot
	actuals   ActualLookup
	infos     map[uuid.UUID]AccountInfo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		budgets:   map[uuid.UUID]*Budget{},
		snapshots: map[uuid.UUID]*VarianceSnapshot{},
		actuals:   ActualLookup{},
		infos:     map[uuid.UUID]AccountInfo{},
	}
}

func (r *memoryRepo) Insert(_ context.Context, budget *Budget) error {
	clone := *budget
	r.budgets[budget.ID] = &clone
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*Budget, error) {
	if b, ok := r.budgets[id]; ok && b.TenantID == tenantID {
		clone := *b
		return &clone, nil
	}
	return nil, shared.ErrBudgetNotFound
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]Budget, int, error) {
	var out []Budget
	for _, b := range r.budgets {
		if b.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status Status, updatedAt time.Time) error {
	b, ok := r.budgets[id]
	if !ok || b.TenantID != tenantID {
		return shared.ErrBudgetNotFound
	}
	b.Status = status
	b.UpdatedAt = updatedAt
	return nil
}

func (r *memoryRepo) AccountActuals(_ context.Context, _ uuid.UUID, accountIDs []uuid.UUID) (ActualLookup, error) {
	out := ActualLookup{}
	for _, id := range accountIDs {
		if v, ok := r.actuals[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (r *memoryRepo) AccountInfos(_ context.Context, _ uuid.UUID, accountIDs []uuid.UUID) (map[uuid.UUID]AccountInfo, error) {
	out := map[uuid.UUID]AccountInfo{}
	for _, id := range accountIDs {
		if info, ok := r.infos[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (r *memoryRepo) ActiveTenants(_ context.Context) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var tenants []uuid.UUID
	for _, b := range r.budgets {
		if b.Status == StatusActive && !seen[b.TenantID] {
			seen[b.TenantID] = true
			tenants = append(tenants, b.TenantID)
		}
	}
	return tenants, nil
}

func (r *memoryRepo) InsertSnapshot(_ context.Context, snap *VarianceSnapshot) error {
	clone := *snap
	r.snapshots[snap.ID] = &clone
	return nil
}

func (r *memoryRepo) GetSnapshot(_ context.Context, tenantID, id uuid.UUID) (*VarianceSnapshot, error) {
	if snap, ok := r.snapshots[id]; ok && snap.TenantID == tenantID {
		clone := *snap
		return &clone, nil
	}
	return nil, shared.ErrSnapshotNotFound
}

func (r *memoryRepo) UpdateSnapshotStatus(_ context.Context, id uuid.UUID, status SnapshotStatus) error {
	snap, ok := r.snapshots[id]
	if !ok {
		return shared.ErrSnapshotNotFound
	}
	snap.Status = status
	return nil
}

func (r *memoryRepo) SaveSnapshotPayload(_ context.Context, id uuid.UUID, rows []VarianceRow, errMsg string, generatedAt time.Time) error {
	snap, ok := r.snapshots[id]
	if !ok {
		return shared.ErrSnapshotNotFound
	}
	snap.Rows = rows
	snap.Error = errMsg
	snap.GeneratedAt = &generatedAt
	return nil
}

func (r *memoryRepo) ListSnapshots(_ context.Context, tenantID, budgetID uuid.UUID) ([]VarianceSnapshot, error) {
	var out []VarianceSnapshot
	for _, snap := range r.snapshots {
		if snap.TenantID == tenantID && snap.BudgetID == budgetID {
			out = append(out, *snap)
		}
	}
	return out, nil
}

type stubEnqueuer struct {
	calls []uuid.UUID
}

func (e *stubEnqueuer) EnqueueVarianceSnapshot(_ context.Context, _, snapshotID uuid.UUID) error {
	e.calls = append(e.calls, snapshotID)
	return nil
}

func testIdentity() shared.Identity {
	return shared.Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: shared.RoleFinanceManager}
}

func TestCreateBudget(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	identity := testIdentity()
	income := uuid.New()
	expense := uuid.New()

	budget, err := svc.Create(context.Background(), identity, CreateRequest{
		Name:          "Academic Year Plan",
		FinancialYear: "2026-27",
		BudgetType:    "Operating",
		Lines: []LineInput{
			{AccountID: income, Category: "Income", Quarters: [4]float64{2500, 2500, 2500, 2500}},
			{AccountID: expense, Category: "Expense", Quarters: [4]float64{1000, 1500, 2000, 1500}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, budget.Status)
	assert.Equal(t, 10000.0, budget.TotalIncome)
	assert.Equal(t, 6000.0, budget.TotalExpense)
	assert.Equal(t, 4000.0, budget.NetBudget)
	require.Len(t, budget.Lines, 2)
	assert.Equal(t, 10000.0, budget.Lines[0].TotalBudget, "line total is the sum of quarters")

	t.Run("negative quarter is rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), identity, CreateRequest{
			Name:          "Bad Plan",
			FinancialYear: "2026-27",
			BudgetType:    "Operating",
			Lines: []LineInput{
				{AccountID: expense, Category: "Expense", Quarters: [4]float64{-10, 0, 0, 0}},
			},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestBudgetWorkflow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	identity := testIdentity()

	budget, err := svc.Create(context.Background(), identity, CreateRequest{
		Name: "Plan", FinancialYear: "2026-27", BudgetType: "Operating",
		Lines: []LineInput{{AccountID: uuid.New(), Category: "Expense", Quarters: [4]float64{100, 0, 0, 0}}},
	})
	require.NoError(t, err)

	t.Run("skipping a step fails", func(t *testing.T) {
		_, err := svc.Transition(context.Background(), identity, budget.ID, StatusActive)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	for _, target := range []Status{StatusSubmitted, StatusApproved, StatusActive, StatusClosed} {
		updated, err := svc.Transition(context.Background(), identity, budget.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, updated.Status)
	}

	t.Run("closed is terminal", func(t *testing.T) {
		_, err := svc.Transition(context.Background(), identity, budget.ID, StatusActive)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejected only from draft or submitted", func(t *testing.T) {
		other, err := svc.Create(context.Background(), identity, CreateRequest{
			Name: "Other", FinancialYear: "2026-27", BudgetType: "Operating",
			Lines: []LineInput{{AccountID: uuid.New(), Category: "Expense", Quarters: [4]float64{100, 0, 0, 0}}},
		})
		require.NoError(t, err)
		rejected, err := svc.Transition(context.Background(), identity, other.ID, StatusRejected)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)
		_, err = svc.Transition(context.Background(), identity, other.ID, StatusSubmitted)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestVsActuals(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	identity := testIdentity()
	salaries := uuid.New()
	repo.actuals[salaries] = 1200
	repo.infos[salaries] = AccountInfo{Code: "5001", Name: "Salaries"}

	budget, err := svc.Create(context.Background(), identity, CreateRequest{
		Name: "Plan", FinancialYear: "2026-27", BudgetType: "Operating",
		Lines: []LineInput{{AccountID: salaries, Category: "Expense", Quarters: [4]float64{250, 250, 250, 250}}},
	})
	require.NoError(t, err)

	rows, err := svc.VsActuals(context.Background(), identity, budget.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1000.0, rows[0].Budgeted)
	assert.Equal(t, 1200.0, rows[0].Actual)
	assert.Equal(t, VarianceOverSpent, rows[0].Status)
	assert.Equal(t, "Salaries", rows[0].AccountName)
}

func TestSnapshotLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	enqueuer := &stubEnqueuer{}
	svc := NewService(repo, enqueuer)
	identity := testIdentity()
	salaries := uuid.New()
	repo.actuals[salaries] = 300

	budget, err := svc.Create(context.Background(), identity, CreateRequest{
		Name: "Plan", FinancialYear: "2026-27", BudgetType: "Operating",
		Lines: []LineInput{{AccountID: salaries, Category: "Expense", Quarters: [4]float64{1000, 0, 0, 0}}},
	})
	require.NoError(t, err)

	snap, err := svc.TriggerSnapshot(context.Background(), identity, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, SnapshotPending, snap.Status)
	require.Len(t, enqueuer.calls, 1)
	assert.Equal(t, snap.ID, enqueuer.calls[0])

	require.NoError(t, svc.ProcessSnapshot(context.Background(), identity.TenantID, snap.ID))

	done, err := svc.GetSnapshot(context.Background(), identity, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, SnapshotReady, done.Status)
	require.Len(t, done.Rows, 1)
	assert.Equal(t, 700.0, done.Rows[0].Variance)
	require.NotNil(t, done.GeneratedAt)

	t.Run("unknown budget", func(t *testing.T) {
		_, err := svc.TriggerSnapshot(context.Background(), identity, uuid.New())
		assert.ErrorIs(t, err, shared.ErrBudgetNotFound)
	})
}

func TestOverSpentRows(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	identity := testIdentity()
	over := uuid.New()
	fine := uuid.New()
	repo.actuals[over] = 900
	repo.actuals[fine] = 100

	budget, err := svc.Create(context.Background(), identity, CreateRequest{
		Name: "Plan", FinancialYear: "2026-27", BudgetType: "Operating",
		Lines: []LineInput{
			{AccountID: over, Category: "Expense", Quarters: [4]float64{500, 0, 0, 0}},
			{AccountID: fine, Category: "Expense", Quarters: [4]float64{500, 0, 0, 0}},
		},
	})
	require.NoError(t, err)
	for _, target := range []Status{StatusSubmitted, StatusApproved, StatusActive} {
		_, err := svc.Transition(context.Background(), identity, budget.ID, target)
		require.NoError(t, err)
	}

	flagged, err := svc.OverSpentRows(context.Background(), identity.TenantID)
	require.NoError(t, err)
	require.Len(t, flagged[budget.ID], 1)
	assert.Equal(t, over, flagged[budget.ID][0].AccountID)
}
