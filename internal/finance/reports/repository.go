package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/shared"
)

// Repository aggregates ledger activity for report building.
type Repository interface {
	// AccountBalances returns every active account with debit and credit
	// totals up to and including asOf.
	AccountBalances(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]AccountBalance, error)
	// RangeActivity returns income and expense accounts with debit and
	// credit totals inside [start, end]. Openings are zero: the statement
	// reports movement, not position.
	RangeActivity(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]AccountBalance, error)
	// AccountHeader returns the identification and opening balance of one
	// account.
	AccountHeader(ctx context.Context, tenantID, accountID uuid.UUID) (AccountBalance, error)
	// AccountTransactions returns the account's ledger rows ascending.
	AccountTransactions(ctx context.Context, tenantID, accountID uuid.UUID, from, to *time.Time) ([]transactions.Transaction, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
	txns transactions.Repository
}

// NewRepository constructs the Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool, txns transactions.Repository) Repository {
	return &pgRepository{pool: pool, txns: txns}
}

func (r *pgRepository) AccountBalances(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.type, a.opening_balance,
COALESCE(SUM(t.amount) FILTER (WHERE t.type='Debit'), 0),
COALESCE(SUM(t.amount) FILTER (WHERE t.type='Credit'), 0)
FROM accounts a
LEFT JOIN transactions t ON t.account_id = a.id AND t.tenant_id = a.tenant_id AND t.transaction_date <= $2
WHERE a.tenant_id = $1 AND a.status = 'Active'
GROUP BY a.id, a.code, a.name, a.type, a.opening_balance
ORDER BY a.code`, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBalances(rows)
}

func (r *pgRepository) RangeActivity(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.type, 0::numeric,
COALESCE(SUM(t.amount) FILTER (WHERE t.type='Debit'), 0),
COALESCE(SUM(t.amount) FILTER (WHERE t.type='Credit'), 0)
FROM accounts a
LEFT JOIN transactions t ON t.account_id = a.id AND t.tenant_id = a.tenant_id
	AND t.transaction_date BETWEEN $2 AND $3
WHERE a.tenant_id = $1 AND a.status = 'Active' AND a.type IN ('Revenue','Expense')
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBalances(rows)
}

func (r *pgRepository) AccountHeader(ctx context.Context, tenantID, accountID uuid.UUID) (AccountBalance, error) {
	var acc AccountBalance
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, type, opening_balance FROM accounts
WHERE tenant_id=$1 AND id=$2`, tenantID, accountID).
		Scan(&acc.AccountID, &acc.Code, &acc.Name, &acc.Type, &acc.Opening)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountBalance{}, shared.ErrAccountNotFound
		}
		return AccountBalance{}, err
	}
	return acc, nil
}

func (r *pgRepository) AccountTransactions(ctx context.Context, tenantID, accountID uuid.UUID, from, to *time.Time) ([]transactions.Transaction, error) {
	return r.txns.ListByAccount(ctx, tenantID, accountID, from, to)
}

func collectBalances(rows pgx.Rows) ([]AccountBalance, error) {
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Opening, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
