package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/platform/db"
	"github.com/campusledger/campusledger/internal/shared"
)

const entryColumns = `id, tenant_id, entry_number, entry_date, entry_type, reference_number,
description, total_debit, total_credit, approval_required, approved_by, approved_at, status,
posted_at, posted_by, reversed_at, reversed_by, reversal_reason, created_by, created_at, updated_at`

// PostingAccount is the slice of an account row the posting path needs.
type PostingAccount struct {
	ID             uuid.UUID
	Status         accounts.Status
	OpeningBalance float64
}

// TxRepository exposes the operations available inside a posting transaction.
type TxRepository interface {
	GetEntryForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	GetPostingAccount(ctx context.Context, tenantID, accountID uuid.UUID) (PostingAccount, error)
	AccountActivity(ctx context.Context, tenantID, accountID uuid.UUID) (debit, credit float64, err error)
	InsertTransaction(ctx context.Context, txn transactions.Transaction) error
	InsertEntry(ctx context.Context, entry *JournalEntry) error
	MarkPosted(ctx context.Context, entry *JournalEntry) error
	MarkReversed(ctx context.Context, entry *JournalEntry) error
}

// Repository persists journal entries.
type Repository interface {
	Insert(ctx context.Context, entry *JournalEntry) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error)
	Update(ctx context.Context, entry *JournalEntry) error
	UpdateStatus(ctx context.Context, entry *JournalEntry) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// WithTx executes fn within a repeatable-read transaction. The posting and
// reversal paths rely on this for their single-transaction guarantee.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *pgRepository) Insert(ctx context.Context, entry *JournalEntry) error {
	return insertEntry(ctx, r.pool, entry)
}

func (r *pgRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrJournalNotFound
		}
		return nil, err
	}
	entry.Lines, err = loadLines(ctx, r.pool, entry.ID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	where := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where = append(where, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where = append(where, fmt.Sprintf("entry_date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.EntryType != "" {
		args = append(args, filter.EntryType)
		where = append(where, fmt.Sprintf("entry_type=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM journal_entries WHERE %s ORDER BY entry_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		entryColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range entries {
		if entries[i].Lines, err = loadLines(ctx, r.pool, entries[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return entries, total, nil
}

func (r *pgRepository) Update(ctx context.Context, entry *JournalEntry) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE journal_entries SET entry_date=$3, reference_number=$4,
description=$5, total_debit=$6, total_credit=$7, updated_at=$8
WHERE tenant_id=$1 AND id=$2 AND status IN ('Draft','Pending')`,
		entry.TenantID, entry.ID, entry.EntryDate, entry.ReferenceNumber, entry.Description,
		toNumeric(entry.TotalDebit), toNumeric(entry.TotalCredit), entry.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM journal_lines WHERE journal_entry_id=$1`, entry.ID); err != nil {
		return err
	}
	return insertLines(ctx, r.pool, entry.ID, entry.Lines)
}

func (r *pgRepository) UpdateStatus(ctx context.Context, entry *JournalEntry) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE journal_entries SET status=$3, approved_by=$4, approved_at=$5, updated_at=$6
WHERE tenant_id=$1 AND id=$2`,
		entry.TenantID, entry.ID, entry.Status, entry.ApprovedBy, entry.ApprovedAt, entry.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrJournalNotFound
		}
		return nil, err
	}
	entry.Lines, err = loadLines(ctx, r.tx, entry.ID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *txRepository) GetPostingAccount(ctx context.Context, tenantID, accountID uuid.UUID) (PostingAccount, error) {
	var account PostingAccount
	err := r.tx.QueryRow(ctx, `SELECT id, status, opening_balance FROM accounts
WHERE tenant_id=$1 AND id=$2`, tenantID, accountID).
		Scan(&account.ID, &account.Status, &account.OpeningBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingAccount{}, shared.ErrInvalidAccount
		}
		return PostingAccount{}, err
	}
	return account, nil
}

func (r *txRepository) AccountActivity(ctx context.Context, tenantID, accountID uuid.UUID) (float64, float64, error) {
	return transactions.AccountActivityTx(ctx, r.tx, tenantID, accountID)
}

func (r *txRepository) InsertTransaction(ctx context.Context, txn transactions.Transaction) error {
	return transactions.InsertTx(ctx, r.tx, txn)
}

func (r *txRepository) InsertEntry(ctx context.Context, entry *JournalEntry) error {
	return insertEntry(ctx, r.tx, entry)
}

func (r *txRepository) MarkPosted(ctx context.Context, entry *JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='Posted', posted_at=$3, posted_by=$4, approved_by=$5, approved_at=$6, updated_at=$3
WHERE tenant_id=$1 AND id=$2 AND status IN ('Draft','Pending')`,
		entry.TenantID, entry.ID, entry.PostedAt, entry.PostedBy, entry.ApprovedBy, entry.ApprovedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryAlreadyPosted
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, entry *JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='Reversed', reversed_at=$3, reversed_by=$4, reversal_reason=$5, updated_at=$3
WHERE tenant_id=$1 AND id=$2 AND status='Posted'`,
		entry.TenantID, entry.ID, entry.ReversedAt, entry.ReversedBy, entry.ReversalReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotPosted
	}
	return nil
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertEntry(ctx context.Context, q execQuerier, entry *JournalEntry) error {
	_, err := q.Exec(ctx, `INSERT INTO journal_entries
(id, tenant_id, entry_number, entry_date, entry_type, reference_number, description, total_debit,
total_credit, approval_required, approved_by, approved_at, status, posted_at, posted_by,
reversed_at, reversed_by, reversal_reason, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		entry.ID, entry.TenantID, entry.EntryNumber, entry.EntryDate, entry.EntryType,
		entry.ReferenceNumber, entry.Description, toNumeric(entry.TotalDebit), toNumeric(entry.TotalCredit),
		entry.ApprovalRequired, entry.ApprovedBy, entry.ApprovedAt, entry.Status, entry.PostedAt,
		entry.PostedBy, entry.ReversedAt, entry.ReversedBy, entry.ReversalReason,
		entry.CreatedBy, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateJournalNumber
		}
		return err
	}
	return insertLines(ctx, q, entry.ID, entry.Lines)
}

func insertLines(ctx context.Context, q execQuerier, entryID uuid.UUID, lines []Line) error {
	for _, line := range lines {
		_, err := q.Exec(ctx, `INSERT INTO journal_lines (id, journal_entry_id, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5,$6)`,
			line.ID, entryID, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit), line.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadLines(ctx context.Context, q execQuerier, entryID uuid.UUID) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, account_id, debit, credit, description
FROM journal_lines WHERE journal_entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.AccountID, &line.Debit, &line.Credit, &line.Description); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (*JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.EntryNumber, &e.EntryDate, &e.EntryType, &e.ReferenceNumber,
		&e.Description, &e.TotalDebit, &e.TotalCredit, &e.ApprovalRequired, &e.ApprovedBy, &e.ApprovedAt,
		&e.Status, &e.PostedAt, &e.PostedBy, &e.ReversedAt, &e.ReversedBy, &e.ReversalReason,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
