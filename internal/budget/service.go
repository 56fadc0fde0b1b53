package budget

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/shared"
)

// SnapshotEnqueuer submits variance snapshot jobs to the queue.
type SnapshotEnqueuer interface {
	EnqueueVarianceSnapshot(ctx context.Context, tenantID, snapshotID uuid.UUID) error
}

// Service coordinates budgets, their workflow, and variance computation.
type Service struct {
	repo     Repository
	enqueuer SnapshotEnqueuer
	now      func() time.Time
}

// NewService constructs the budget service. The enqueuer may be nil, in which
// case snapshot triggers fail fast.
func NewService(repo Repository, enqueuer SnapshotEnqueuer) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create records a new Draft budget. Line totals are the sum of the quarterly
// allocations and the net budget is income minus expense.
func (s *Service) Create(ctx context.Context, identity shared.Identity, req CreateRequest) (*Budget, error) {
	now := s.now()
	budget := &Budget{
		ID:            uuid.New(),
		TenantID:      identity.TenantID,
		Name:          req.Name,
		FinancialYear: req.FinancialYear,
		BudgetType:    req.BudgetType,
		Status:        StatusDraft,
		CreatedBy:     identity.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, in := range req.Lines {
		var total float64
		for _, q := range in.Quarters {
			if q < 0 {
				return nil, shared.ErrValidation.WithMessage("quarterly allocations must not be negative")
			}
			total += q
		}
		line := BudgetLine{
			ID:          uuid.New(),
			BudgetID:    budget.ID,
			AccountID:   in.AccountID,
			Category:    LineCategory(in.Category),
			Quarters:    in.Quarters,
			TotalBudget: round2(total),
		}
		budget.Lines = append(budget.Lines, line)
		switch line.Category {
		case CategoryIncome:
			budget.TotalIncome += line.TotalBudget
		case CategoryExpense:
			budget.TotalExpense += line.TotalBudget
		}
	}
	budget.TotalIncome = round2(budget.TotalIncome)
	budget.TotalExpense = round2(budget.TotalExpense)
	budget.NetBudget = round2(budget.TotalIncome - budget.TotalExpense)

	if err := s.repo.Insert(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// Get returns a budget with its lines.
func (s *Service) Get(ctx context.Context, identity shared.Identity, id uuid.UUID) (*Budget, error) {
	return s.repo.GetByID(ctx, identity.TenantID, id)
}

// List returns a filtered page of budgets without lines.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Budget, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Transition moves a budget along its workflow. Illegal edges are rejected.
func (s *Service) Transition(ctx context.Context, identity shared.Identity, id uuid.UUID, target Status) (*Budget, error) {
	budget, err := s.repo.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(budget.Status, target) {
		return nil, shared.ErrInvalidState.WithMessage("cannot move budget from %s to %s", budget.Status, target)
	}
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, identity.TenantID, id, target, now); err != nil {
		return nil, err
	}
	budget.Status = target
	budget.UpdatedAt = now
	return budget, nil
}

// VsActuals computes variance rows live against the current ledger.
func (s *Service) VsActuals(ctx context.Context, identity shared.Identity, id uuid.UUID) ([]VarianceRow, error) {
	budget, err := s.repo.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	return s.computeRows(ctx, budget)
}

// TriggerSnapshot inserts a Pending snapshot and enqueues its computation.
func (s *Service) TriggerSnapshot(ctx context.Context, identity shared.Identity, budgetID uuid.UUID) (*VarianceSnapshot, error) {
	if _, err := s.repo.GetByID(ctx, identity.TenantID, budgetID); err != nil {
		return nil, err
	}
	now := s.now()
	snap := &VarianceSnapshot{
		ID:        uuid.New(),
		TenantID:  identity.TenantID,
		BudgetID:  budgetID,
		Status:    SnapshotPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	if s.enqueuer == nil {
		return nil, shared.ErrInternal.WithMessage("job queue is not configured")
	}
	if err := s.enqueuer.EnqueueVarianceSnapshot(ctx, identity.TenantID, snap.ID); err != nil {
		return nil, err
	}
	return snap, nil
}

// GetSnapshot returns snapshot metadata and, once Ready, its rows.
func (s *Service) GetSnapshot(ctx context.Context, identity shared.Identity, id uuid.UUID) (*VarianceSnapshot, error) {
	return s.repo.GetSnapshot(ctx, identity.TenantID, id)
}

// ListSnapshots returns the snapshot history for one budget.
func (s *Service) ListSnapshots(ctx context.Context, identity shared.Identity, budgetID uuid.UUID) ([]VarianceSnapshot, error) {
	return s.repo.ListSnapshots(ctx, identity.TenantID, budgetID)
}

// ProcessSnapshot computes and persists one snapshot. Called by the worker.
func (s *Service) ProcessSnapshot(ctx context.Context, tenantID, snapshotID uuid.UUID) error {
	snap, err := s.repo.GetSnapshot(ctx, tenantID, snapshotID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateSnapshotStatus(ctx, snap.ID, SnapshotInProgress); err != nil {
		return err
	}
	budget, err := s.repo.GetByID(ctx, tenantID, snap.BudgetID)
	if err != nil {
		s.failSnapshot(ctx, snap.ID, err)
		return err
	}
	rows, err := s.computeRows(ctx, budget)
	if err != nil {
		s.failSnapshot(ctx, snap.ID, err)
		return err
	}
	if err := s.repo.SaveSnapshotPayload(ctx, snap.ID, rows, "", s.now()); err != nil {
		s.failSnapshot(ctx, snap.ID, err)
		return err
	}
	return s.repo.UpdateSnapshotStatus(ctx, snap.ID, SnapshotReady)
}

// ActiveTenants lists tenants holding at least one Active budget.
func (s *Service) ActiveTenants(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ActiveTenants(ctx)
}

// OverSpentRows returns the flagged rows for every Active budget of a tenant.
// Used by the scheduled alert scan.
func (s *Service) OverSpentRows(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID][]VarianceRow, error) {
	budgets, _, err := s.repo.List(ctx, ListFilter{TenantID: tenantID, Status: StatusActive, PerPage: 200})
	if err != nil {
		return nil, err
	}
	flagged := make(map[uuid.UUID][]VarianceRow)
	for _, b := range budgets {
		budget, err := s.repo.GetByID(ctx, tenantID, b.ID)
		if err != nil {
			return nil, err
		}
		rows, err := s.computeRows(ctx, budget)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.Status == VarianceOverSpent {
				flagged[b.ID] = append(flagged[b.ID], row)
			}
		}
	}
	return flagged, nil
}

func (s *Service) computeRows(ctx context.Context, budget *Budget) ([]VarianceRow, error) {
	accountIDs := make([]uuid.UUID, 0, len(budget.Lines))
	for _, line := range budget.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	actuals, err := s.repo.AccountActuals(ctx, budget.TenantID, accountIDs)
	if err != nil {
		return nil, err
	}
	infos, err := s.repo.AccountInfos(ctx, budget.TenantID, accountIDs)
	if err != nil {
		return nil, err
	}
	return ComputeVariance(budget.Lines, actuals, infos), nil
}

func (s *Service) failSnapshot(ctx context.Context, id uuid.UUID, cause error) {
	_ = s.repo.SaveSnapshotPayload(ctx, id, nil, cause.Error(), s.now())
	_ = s.repo.UpdateSnapshotStatus(ctx, id, SnapshotFailed)
}
