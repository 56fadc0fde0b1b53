package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/shared"
)

const transactionColumns = `id, tenant_id, account_id, journal_entry_id, transaction_date,
type, amount, balance_after, description, reference_type, created_at`

// ListFilter narrows ledger queries.
type ListFilter struct {
	TenantID  uuid.UUID
	AccountID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Type      Type
	Page      int
	PerPage   int
}

// Repository reads ledger rows. Writes happen only inside the journal posting
// transaction, via InsertTx.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Transaction, int, error)
	ListByJournalEntry(ctx context.Context, tenantID, entryID uuid.UUID) ([]Transaction, error)
	ListByAccount(ctx context.Context, tenantID, accountID uuid.UUID, from, to *time.Time) ([]Transaction, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Transaction, int, error) {
	where := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		where = append(where, fmt.Sprintf("account_id=$%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where = append(where, fmt.Sprintf("transaction_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where = append(where, fmt.Sprintf("transaction_date <= $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY transaction_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *pgRepository) ListByJournalEntry(ctx context.Context, tenantID, entryID uuid.UUID) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
WHERE tenant_id=$1 AND journal_entry_id=$2 ORDER BY created_at ASC`, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *pgRepository) ListByAccount(ctx context.Context, tenantID, accountID uuid.UUID, from, to *time.Time) ([]Transaction, error) {
	where := []string{"tenant_id=$1", "account_id=$2"}
	args := []any{tenantID, accountID}
	if from != nil {
		args = append(args, *from)
		where = append(where, fmt.Sprintf("transaction_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		where = append(where, fmt.Sprintf("transaction_date <= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY transaction_date ASC, created_at ASC`,
		transactionColumns, strings.Join(where, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// InsertTx writes a ledger row inside an open journal posting transaction.
func InsertTx(ctx context.Context, tx pgx.Tx, txn Transaction) error {
	_, err := tx.Exec(ctx, `INSERT INTO transactions
(id, tenant_id, account_id, journal_entry_id, transaction_date, type, amount, balance_after, description, reference_type, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		txn.ID, txn.TenantID, txn.AccountID, txn.JournalEntryID, txn.TransactionDate,
		txn.Type, fmt.Sprintf("%.2f", txn.Amount), fmt.Sprintf("%.2f", txn.BalanceAfter),
		txn.Description, txn.ReferenceType, txn.CreatedAt)
	return err
}

// AccountActivityTx sums debit and credit totals for an account inside an open
// transaction, for computing the running balance at posting time.
func AccountActivityTx(ctx context.Context, tx pgx.Tx, tenantID, accountID uuid.UUID) (debit, credit float64, err error) {
	err = tx.QueryRow(ctx, `SELECT
COALESCE(SUM(amount) FILTER (WHERE type='Debit'), 0),
COALESCE(SUM(amount) FILTER (WHERE type='Credit'), 0)
FROM transactions WHERE tenant_id=$1 AND account_id=$2`, tenantID, accountID).Scan(&debit, &credit)
	return debit, credit, err
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.TenantID, &t.AccountID, &t.JournalEntryID, &t.TransactionDate,
			&t.Type, &t.Amount, &t.BalanceAfter, &t.Description, &t.ReferenceType, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
