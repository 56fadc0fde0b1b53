package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/shared"
)

// Repository persists budgets and variance snapshots.
type Repository interface {
	Insert(ctx context.Context, budget *Budget) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Budget, error)
	List(ctx context.Context, filter ListFilter) ([]Budget, int, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status Status, updatedAt time.Time) error

	// AccountActuals sums every transaction amount per account, regardless
	// of type.
	AccountActuals(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID) (ActualLookup, error)
	// AccountInfos resolves code and name for variance rows.
	AccountInfos(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID) (map[uuid.UUID]AccountInfo, error)
	// ActiveTenants lists tenants that have at least one Active budget.
	ActiveTenants(ctx context.Context) ([]uuid.UUID, error)

	InsertSnapshot(ctx context.Context, snap *VarianceSnapshot) error
	GetSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*VarianceSnapshot, error)
	UpdateSnapshotStatus(ctx context.Context, id uuid.UUID, status SnapshotStatus) error
	SaveSnapshotPayload(ctx context.Context, id uuid.UUID, rows []VarianceRow, errMsg string, generatedAt time.Time) error
	ListSnapshots(ctx context.Context, tenantID, budgetID uuid.UUID) ([]VarianceSnapshot, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Insert(ctx context.Context, budget *Budget) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO budgets
(id, tenant_id, name, financial_year, budget_type, status, total_income, total_expense, net_budget, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		budget.ID, budget.TenantID, budget.Name, budget.FinancialYear, budget.BudgetType, budget.Status,
		toNumeric(budget.TotalIncome), toNumeric(budget.TotalExpense), toNumeric(budget.NetBudget),
		budget.CreatedBy, budget.CreatedAt, budget.UpdatedAt)
	if err != nil {
		return err
	}
	for _, line := range budget.Lines {
		_, err := r.pool.Exec(ctx, `INSERT INTO budget_lines
(id, budget_id, account_id, category, q1, q2, q3, q4, total_budget)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			line.ID, budget.ID, line.AccountID, line.Category,
			toNumeric(line.Quarters[0]), toNumeric(line.Quarters[1]),
			toNumeric(line.Quarters[2]), toNumeric(line.Quarters[3]),
			toNumeric(line.TotalBudget))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Budget, error) {
	var b Budget
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, name, financial_year, budget_type, status,
total_income, total_expense, net_budget, created_by, created_at, updated_at
FROM budgets WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&b.ID, &b.TenantID, &b.Name, &b.FinancialYear, &b.BudgetType, &b.Status,
			&b.TotalIncome, &b.TotalExpense, &b.NetBudget, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrBudgetNotFound
		}
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, budget_id, account_id, category, q1, q2, q3, q4, total_budget
FROM budget_lines WHERE budget_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line BudgetLine
		err := rows.Scan(&line.ID, &line.BudgetID, &line.AccountID, &line.Category,
			&line.Quarters[0], &line.Quarters[1], &line.Quarters[2], &line.Quarters[3], &line.TotalBudget)
		if err != nil {
			return nil, err
		}
		b.Lines = append(b.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Budget, int, error) {
	where := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}
	if filter.FinancialYear != "" {
		args = append(args, filter.FinancialYear)
		where = append(where, fmt.Sprintf("financial_year=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM budgets WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT id, tenant_id, name, financial_year, budget_type, status,
total_income, total_expense, net_budget, created_by, created_at, updated_at
FROM budgets WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var budgets []Budget
	for rows.Next() {
		var b Budget
		err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.FinancialYear, &b.BudgetType, &b.Status,
			&b.TotalIncome, &b.TotalExpense, &b.NetBudget, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		budgets = append(budgets, b)
	}
	return budgets, total, rows.Err()
}

func (r *pgRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status Status, updatedAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budgets SET status=$3, updated_at=$4 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, status, updatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrBudgetNotFound
	}
	return nil
}

func (r *pgRepository) AccountActuals(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID) (ActualLookup, error) {
	if len(accountIDs) == 0 {
		return ActualLookup{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT account_id, COALESCE(SUM(amount), 0)
FROM transactions WHERE tenant_id=$1 AND account_id = ANY($2)
GROUP BY account_id`, tenantID, accountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	actuals := make(ActualLookup, len(accountIDs))
	for rows.Next() {
		var accountID uuid.UUID
		var sum float64
		if err := rows.Scan(&accountID, &sum); err != nil {
			return nil, err
		}
		actuals[accountID] = sum
	}
	return actuals, rows.Err()
}

func (r *pgRepository) AccountInfos(ctx context.Context, tenantID uuid.UUID, accountIDs []uuid.UUID) (map[uuid.UUID]AccountInfo, error) {
	if len(accountIDs) == 0 {
		return map[uuid.UUID]AccountInfo{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM accounts
WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, accountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	infos := make(map[uuid.UUID]AccountInfo, len(accountIDs))
	for rows.Next() {
		var id uuid.UUID
		var info AccountInfo
		if err := rows.Scan(&id, &info.Code, &info.Name); err != nil {
			return nil, err
		}
		infos[id] = info
	}
	return infos, rows.Err()
}

func (r *pgRepository) ActiveTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM budgets WHERE status=$1`, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tenants = append(tenants, id)
	}
	return tenants, rows.Err()
}

func (r *pgRepository) InsertSnapshot(ctx context.Context, snap *VarianceSnapshot) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO variance_snapshots
(id, tenant_id, budget_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		snap.ID, snap.TenantID, snap.BudgetID, snap.Status, snap.CreatedAt, snap.UpdatedAt)
	return err
}

func (r *pgRepository) GetSnapshot(ctx context.Context, tenantID, id uuid.UUID) (*VarianceSnapshot, error) {
	var snap VarianceSnapshot
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, budget_id, status, generated_at, error, payload, created_at, updated_at
FROM variance_snapshots WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&snap.ID, &snap.TenantID, &snap.BudgetID, &snap.Status, &snap.GeneratedAt, &snap.Error, &payload, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &snap.Rows); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}

func (r *pgRepository) UpdateSnapshotStatus(ctx context.Context, id uuid.UUID, status SnapshotStatus) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE variance_snapshots SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrSnapshotNotFound
	}
	return nil
}

func (r *pgRepository) SaveSnapshotPayload(ctx context.Context, id uuid.UUID, rowsData []VarianceRow, errMsg string, generatedAt time.Time) error {
	payload, err := json.Marshal(rowsData)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE variance_snapshots SET payload=$2, error=$3, generated_at=$4, updated_at=NOW() WHERE id=$1`,
		id, payload, errMsg, generatedAt)
	return err
}

func (r *pgRepository) ListSnapshots(ctx context.Context, tenantID, budgetID uuid.UUID) ([]VarianceSnapshot, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, budget_id, status, generated_at, error, created_at, updated_at
FROM variance_snapshots WHERE tenant_id=$1 AND budget_id=$2 ORDER BY created_at DESC`, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var snaps []VarianceSnapshot
	for rows.Next() {
		var snap VarianceSnapshot
		err := rows.Scan(&snap.ID, &snap.TenantID, &snap.BudgetID, &snap.Status, &snap.GeneratedAt, &snap.Error, &snap.CreatedAt, &snap.UpdatedAt)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
