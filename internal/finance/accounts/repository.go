package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/shared"
)

const accountColumns = `id, tenant_id, code, name, type, category, parent_id, description,
opening_balance, opening_balance_date, currency, status, tax_applicable, gst_rate, created_at, updated_at`

// Repository persists chart of accounts rows.
type Repository interface {
	Insert(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, int, error)
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]Account, error)
	Update(ctx context.Context, account *Account) error
	SetStatus(ctx context.Context, tenantID, id uuid.UUID, status Status) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Insert(ctx context.Context, account *Account) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO accounts
(id, tenant_id, code, name, type, category, parent_id, description, opening_balance, opening_balance_date, currency, status, tax_applicable, gst_rate, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		account.ID, account.TenantID, account.Code, account.Name, account.Type, account.Category,
		account.ParentID, account.Description, toNumeric(account.OpeningBalance), account.OpeningBalanceDate,
		account.Currency, account.Status, account.TaxApplicable, toNumeric(account.GSTRate),
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateAccountCode
		}
		return err
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Account, int, error) {
	where := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	} else {
		where = append(where, "status <> 'Archived'")
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s ORDER BY code LIMIT $%d OFFSET $%d`,
		accountColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *pgRepository) ListAll(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND status <> 'Archived' ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *pgRepository) Update(ctx context.Context, account *Account) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET name=$3, category=$4, parent_id=$5, description=$6,
tax_applicable=$7, gst_rate=$8, updated_at=$9 WHERE tenant_id=$1 AND id=$2`,
		account.TenantID, account.ID, account.Name, account.Category, account.ParentID,
		account.Description, account.TaxApplicable, toNumeric(account.GSTRate), account.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *pgRepository) SetStatus(ctx context.Context, tenantID, id uuid.UUID, status Status) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET status=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID,
		&a.Description, &a.OpeningBalance, &a.OpeningBalanceDate, &a.Currency, &a.Status,
		&a.TaxApplicable, &a.GSTRate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
