package journals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/shared"
)

// memoryRepo backs the service with maps. WithTx snapshots state and restores
// it when fn fails, mimicking a database rollback.
type memoryRepo struct {
	entries  map[uuid.UUID]*JournalEntry
	numbers  map[string]bool
	accounts map[uuid.UUID]PostingAccount
	ledger   []transactions.Transaction
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries:  map[uuid.UUID]*JournalEntry{},
		numbers:  map[string]bool{},
		accounts: map[uuid.UUID]PostingAccount{},
	}
}

func (r *memoryRepo) addAccount(opening float64, status accounts.Status) uuid.UUID {
	id := uuid.New()
	r.accounts[id] = PostingAccount{ID: id, Status: status, OpeningBalance: opening}
	return id
}

func (r *memoryRepo) Insert(_ context.Context, entry *JournalEntry) error {
	if r.numbers[entry.EntryNumber] {
		return shared.ErrDuplicateJournalNumber
	}
	clone := *entry
	r.entries[entry.ID] = &clone
	r.numbers[entry.EntryNumber] = true
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*JournalEntry, error) {
	if entry, ok := r.entries[id]; ok && entry.TenantID == tenantID {
		clone := *entry
		return &clone, nil
	}
	return nil, shared.ErrJournalNotFound
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	var out []JournalEntry
	for _, entry := range r.entries {
		if entry.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		out = append(out, *entry)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(_ context.Context, entry *JournalEntry) error {
	current, ok := r.entries[entry.ID]
	if !ok || !current.Editable() {
		return shared.ErrJournalNotFound
	}
	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, entry *JournalEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return shared.ErrJournalNotFound
	}
	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapEntries := make(map[uuid.UUID]*JournalEntry, len(r.entries))
	for id, entry := range r.entries {
		clone := *entry
		snapEntries[id] = &clone
	}
	snapLedger := append([]transactions.Transaction(nil), r.ledger...)
	if err := fn(ctx, (*memoryTx)(r)); err != nil {
		r.entries = snapEntries
		r.ledger = snapLedger
		return err
	}
	return nil
}

type memoryTx memoryRepo

func (t *memoryTx) GetEntryForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error) {
	return (*memoryRepo)(t).GetByID(ctx, tenantID, id)
}

func (t *memoryTx) GetPostingAccount(_ context.Context, _, accountID uuid.UUID) (PostingAccount, error) {
	if account, ok := t.accounts[accountID]; ok {
		return account, nil
	}
	return PostingAccount{}, shared.ErrInvalidAccount
}

func (t *memoryTx) AccountActivity(_ context.Context, _, accountID uuid.UUID) (float64, float64, error) {
	var debit, credit float64
	for _, txn := range t.ledger {
		if txn.AccountID != accountID {
			continue
		}
		if txn.Type == transactions.TypeDebit {
			debit += txn.Amount
		} else {
			credit += txn.Amount
		}
	}
	return debit, credit, nil
}

func (t *memoryTx) InsertTransaction(_ context.Context, txn transactions.Transaction) error {
	t.ledger = append(t.ledger, txn)
	return nil
}

func (t *memoryTx) InsertEntry(ctx context.Context, entry *JournalEntry) error {
	return (*memoryRepo)(t).Insert(ctx, entry)
}

func (t *memoryTx) MarkPosted(_ context.Context, entry *JournalEntry) error {
	current, ok := t.entries[entry.ID]
	if !ok || !current.Editable() {
		return shared.ErrEntryAlreadyPosted
	}
	clone := *entry
	t.entries[entry.ID] = &clone
	return nil
}

func (t *memoryTx) MarkReversed(_ context.Context, entry *JournalEntry) error {
	current, ok := t.entries[entry.ID]
	if !ok || current.Status != StatusPosted {
		return shared.ErrEntryNotPosted
	}
	clone := *entry
	clone.Status = StatusReversed
	t.entries[entry.ID] = &clone
	return nil
}

func approver() shared.Identity {
	return shared.Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: shared.RoleFinanceManager}
}

func balancedRequest(debitAccount, creditAccount uuid.UUID, amount float64, number string) CreateRequest {
	return CreateRequest{
		EntryNumber: number,
		EntryDate:   time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		EntryType:   "Journal",
		Description: "Term fee collection",
		Lines: []LineInput{
			{AccountID: debitAccount, Debit: amount},
			{AccountID: creditAccount, Credit: amount},
		},
	}
}

func TestCreateBalanceInvariant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	debitAcct := repo.addAccount(0, accounts.StatusActive)
	creditAcct := repo.addAccount(0, accounts.StatusActive)

	t.Run("balanced entry is accepted as draft", func(t *testing.T) {
		entry, err := svc.Create(context.Background(), identity, balancedRequest(debitAcct, creditAcct, 500, "JE-001"))
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, entry.Status)
		assert.Equal(t, 500.0, entry.TotalDebit)
		assert.Equal(t, 500.0, entry.TotalCredit)
	})

	t.Run("unbalanced entry is rejected", func(t *testing.T) {
		req := balancedRequest(debitAcct, creditAcct, 500, "JE-002")
		req.Lines[1].Credit = 400
		_, err := svc.Create(context.Background(), identity, req)
		assert.ErrorIs(t, err, shared.ErrInvalidJournalEntry)
	})

	t.Run("line with both sides is rejected", func(t *testing.T) {
		req := balancedRequest(debitAcct, creditAcct, 500, "JE-003")
		req.Lines[0].Credit = 500
		req.Lines[1].Credit = 1000
		_, err := svc.Create(context.Background(), identity, req)
		assert.ErrorIs(t, err, shared.ErrInvalidJournalEntry)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		req := CreateRequest{
			EntryNumber: "JE-004",
			EntryDate:   time.Now(),
			EntryType:   "Journal",
			Lines: []LineInput{
				{AccountID: debitAcct, Debit: -100},
				{AccountID: creditAcct, Credit: -100},
			},
		}
		_, err := svc.Create(context.Background(), identity, req)
		assert.ErrorIs(t, err, shared.ErrInvalidJournalEntry)
	})

	t.Run("duplicate number", func(t *testing.T) {
		_, err := svc.Create(context.Background(), identity, balancedRequest(debitAcct, creditAcct, 100, "JE-001"))
		assert.ErrorIs(t, err, shared.ErrDuplicateJournalNumber)
	})

	t.Run("off by a paisa fails the two decimal compare", func(t *testing.T) {
		req := balancedRequest(debitAcct, creditAcct, 100, "JE-005")
		req.Lines[1].Credit = 100.01
		_, err := svc.Create(context.Background(), identity, req)
		assert.ErrorIs(t, err, shared.ErrInvalidJournalEntry)
	})
}

func TestPostAppendsLedgerRows(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	cash := repo.addAccount(1000, accounts.StatusActive)
	fees := repo.addAccount(0, accounts.StatusActive)

	entry, err := svc.Create(context.Background(), identity, balancedRequest(cash, fees, 250, "JE-010"))
	require.NoError(t, err)

	posted, err := svc.Post(context.Background(), identity, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
	assert.Equal(t, identity.UserID, *posted.PostedBy)

	require.Len(t, repo.ledger, 2)
	debitRow, creditRow := repo.ledger[0], repo.ledger[1]
	assert.Equal(t, transactions.TypeDebit, debitRow.Type)
	assert.Equal(t, cash, debitRow.AccountID)
	assert.Equal(t, 250.0, debitRow.Amount)
	// Debits reduce the balance under the uniform credit-minus-debit rule.
	assert.Equal(t, 750.0, debitRow.BalanceAfter)
	assert.Equal(t, transactions.TypeCredit, creditRow.Type)
	assert.Equal(t, 250.0, creditRow.Amount)
	assert.Equal(t, 250.0, creditRow.BalanceAfter)
}

func TestPostIdempotence(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	cash := repo.addAccount(0, accounts.StatusActive)
	fees := repo.addAccount(0, accounts.StatusActive)

	entry, err := svc.Create(context.Background(), identity, balancedRequest(cash, fees, 100, "JE-020"))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), identity, entry.ID)
	require.NoError(t, err)
	require.Len(t, repo.ledger, 2)

	_, err = svc.Post(context.Background(), identity, entry.ID)
	assert.ErrorIs(t, err, shared.ErrEntryAlreadyPosted)
	assert.Len(t, repo.ledger, 2, "failed repost must not add ledger rows")
}

func TestPostInactiveAccountRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	cash := repo.addAccount(0, accounts.StatusActive)
	closed := repo.addAccount(0, accounts.StatusInactive)

	entry, err := svc.Create(context.Background(), identity, balancedRequest(cash, closed, 100, "JE-030"))
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), identity, entry.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidAccount)
	assert.Empty(t, repo.ledger, "partial posting must roll back")

	got, err := svc.Get(context.Background(), identity, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)
}

func TestReverse(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	cash := repo.addAccount(0, accounts.StatusActive)
	fees := repo.addAccount(0, accounts.StatusActive)

	entry, err := svc.Create(context.Background(), identity, balancedRequest(cash, fees, 300, "JE-040"))
	require.NoError(t, err)

	t.Run("draft entry cannot be reversed", func(t *testing.T) {
		_, err := svc.Reverse(context.Background(), identity, entry.ID, "typo")
		assert.ErrorIs(t, err, shared.ErrEntryNotPosted)
	})

	_, err = svc.Post(context.Background(), identity, entry.ID)
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), identity, entry.ID, "wrong account")
	require.NoError(t, err)
	assert.Equal(t, "REV-JE-040", reversal.EntryNumber)
	assert.Equal(t, StatusPosted, reversal.Status)
	assert.Equal(t, entry.TotalCredit, reversal.TotalDebit)

	// Lines swap sides account by account.
	require.Len(t, reversal.Lines, 2)
	assert.Equal(t, cash, reversal.Lines[0].AccountID)
	assert.Equal(t, 300.0, reversal.Lines[0].Credit)
	assert.Zero(t, reversal.Lines[0].Debit)
	assert.Equal(t, 300.0, reversal.Lines[1].Debit)

	original, err := svc.Get(context.Background(), identity, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReversed, original.Status)
	assert.Equal(t, "wrong account", original.ReversalReason)
	require.NotNil(t, original.ReversedBy)
	assert.Equal(t, identity.UserID, *original.ReversedBy)

	// Both postings stay in the ledger; nothing is netted.
	assert.Len(t, repo.ledger, 4)

	t.Run("double reversal fails", func(t *testing.T) {
		_, err := svc.Reverse(context.Background(), identity, entry.ID, "again")
		assert.ErrorIs(t, err, shared.ErrEntryNotPosted)
	})
}

func TestUpdateLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	cash := repo.addAccount(0, accounts.StatusActive)
	fees := repo.addAccount(0, accounts.StatusActive)

	entry, err := svc.Create(context.Background(), identity, balancedRequest(cash, fees, 100, "JE-050"))
	require.NoError(t, err)

	t.Run("draft update rebalances", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), identity, entry.ID, UpdateRequest{
			Lines: []LineInput{
				{AccountID: cash, Debit: 175.5},
				{AccountID: fees, Credit: 175.5},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 175.5, updated.TotalDebit)
	})

	t.Run("unbalanced update is rejected", func(t *testing.T) {
		_, err := svc.Update(context.Background(), identity, entry.ID, UpdateRequest{
			Lines: []LineInput{
				{AccountID: cash, Debit: 100},
				{AccountID: fees, Credit: 90},
			},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidJournalEntry)
	})

	t.Run("posted entry is immutable", func(t *testing.T) {
		_, err := svc.Post(context.Background(), identity, entry.ID)
		require.NoError(t, err)
		desc := "late edit"
		_, err = svc.Update(context.Background(), identity, entry.ID, UpdateRequest{Description: &desc})
		assert.ErrorIs(t, err, shared.ErrCannotUpdatePosted)
	})
}

func TestApprovalWorkflow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	identity := approver()
	cash := repo.addAccount(0, accounts.StatusActive)
	fees := repo.addAccount(0, accounts.StatusActive)

	req := balancedRequest(cash, fees, 100, "JE-060")
	req.ApprovalRequired = true
	entry, err := svc.Create(context.Background(), identity, req)
	require.NoError(t, err)

	t.Run("approval required blocks direct posting", func(t *testing.T) {
		_, err := svc.Post(context.Background(), identity, entry.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("approve only from pending", func(t *testing.T) {
		_, err := svc.Approve(context.Background(), identity, entry.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	submitted, err := svc.Submit(context.Background(), identity, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, submitted.Status)

	approved, err := svc.Approve(context.Background(), identity, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, identity.UserID, *approved.ApprovedBy)
	assert.Len(t, repo.ledger, 2)

	t.Run("rejected is terminal", func(t *testing.T) {
		other, err := svc.Create(context.Background(), identity, balancedRequest(cash, fees, 50, "JE-061"))
		require.NoError(t, err)
		rejected, err := svc.Reject(context.Background(), identity, other.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)
		_, err = svc.Submit(context.Background(), identity, other.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		_, err = svc.Post(context.Background(), identity, other.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("failed approval leaves no approver stamp", func(t *testing.T) {
		frozen := repo.addAccount(0, accounts.StatusInactive)
		req := balancedRequest(cash, frozen, 75, "JE-062")
		req.ApprovalRequired = true
		entry, err := svc.Create(context.Background(), identity, req)
		require.NoError(t, err)
		_, err = svc.Submit(context.Background(), identity, entry.ID)
		require.NoError(t, err)

		_, err = svc.Approve(context.Background(), identity, entry.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidAccount)

		current, err := svc.Get(context.Background(), identity, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, current.Status)
		assert.Nil(t, current.ApprovedBy)
		assert.Nil(t, current.ApprovedAt)
	})
}
