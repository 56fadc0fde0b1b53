package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/shared"
)

// ReportCache invalidates cached report output after a posting changes the
// ledger.
type ReportCache interface {
	Bump(ctx context.Context, tenantID uuid.UUID) error
}

// PostingMetrics counts posting outcomes.
type PostingMetrics interface {
	RecordPosting(outcome string)
}

// Service coordinates the journal entry lifecycle.
type Service struct {
	repo    Repository
	cache   ReportCache
	metrics PostingMetrics
	now     func() time.Time
}

// NewService constructs the journal service. Cache and metrics may be nil.
func NewService(repo Repository, cache ReportCache, metrics PostingMetrics) *Service {
	return &Service{repo: repo, cache: cache, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create records a new entry in Draft. Totals are computed server-side and the
// balance invariant is enforced before anything touches the database.
func (s *Service) Create(ctx context.Context, identity shared.Identity, req CreateRequest) (*JournalEntry, error) {
	totalDebit, totalCredit, err := validateLines(req.Lines)
	if err != nil {
		return nil, err
	}
	now := s.now()
	entry := &JournalEntry{
		ID:               uuid.New(),
		TenantID:         identity.TenantID,
		EntryNumber:      req.EntryNumber,
		EntryDate:        req.EntryDate,
		EntryType:        EntryType(req.EntryType),
		ReferenceNumber:  req.ReferenceNumber,
		Description:      req.Description,
		Lines:            toLines(req.Lines),
		TotalDebit:       totalDebit,
		TotalCredit:      totalCredit,
		ApprovalRequired: req.ApprovalRequired,
		Status:           StatusDraft,
		CreatedBy:        identity.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns a single entry with its lines.
func (s *Service) Get(ctx context.Context, identity shared.Identity, id uuid.UUID) (*JournalEntry, error) {
	return s.repo.GetByID(ctx, identity.TenantID, id)
}

// List returns a filtered page of entries, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update modifies a Draft or Pending entry. Posted entries are immutable.
func (s *Service) Update(ctx context.Context, identity shared.Identity, id uuid.UUID, req UpdateRequest) (*JournalEntry, error) {
	entry, err := s.repo.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status == StatusPosted || entry.Status == StatusReversed {
		return nil, shared.ErrCannotUpdatePosted
	}
	if !entry.Editable() {
		return nil, shared.ErrInvalidState
	}
	if req.Lines != nil {
		totalDebit, totalCredit, err := validateLines(req.Lines)
		if err != nil {
			return nil, err
		}
		entry.Lines = toLines(req.Lines)
		entry.TotalDebit = totalDebit
		entry.TotalCredit = totalCredit
	}
	if req.EntryDate != nil {
		entry.EntryDate = *req.EntryDate
	}
	if req.ReferenceNumber != nil {
		entry.ReferenceNumber = *req.ReferenceNumber
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}
	entry.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Submit moves a Draft entry into Pending review.
func (s *Service) Submit(ctx context.Context, identity shared.Identity, id uuid.UUID) (*JournalEntry, error) {
	entry, err := s.repo.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != StatusDraft {
		return nil, shared.ErrInvalidState
	}
	entry.Status = StatusPending
	entry.UpdatedAt = s.now()
	if err := s.repo.UpdateStatus(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Approve stamps the approver on a Pending entry and posts it. The stamp and
// the posting share one transaction: a failed post leaves no approver behind.
func (s *Service) Approve(ctx context.Context, identity shared.Identity, id uuid.UUID) (*JournalEntry, error) {
	return s.post(ctx, identity, id, true)
}

// Reject moves a Draft or Pending entry to the terminal Rejected state.
func (s *Service) Reject(ctx context.Context, identity shared.Identity, id uuid.UUID) (*JournalEntry, error) {
	entry, err := s.repo.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !entry.Editable() {
		return nil, shared.ErrInvalidState
	}
	entry.Status = StatusRejected
	entry.UpdatedAt = s.now()
	if err := s.repo.UpdateStatus(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Post validates and posts an entry, appending one ledger transaction per line.
// The whole operation runs inside a single database transaction so the status
// flip and the ledger rows commit or roll back together.
func (s *Service) Post(ctx context.Context, identity shared.Identity, id uuid.UUID) (*JournalEntry, error) {
	return s.post(ctx, identity, id, false)
}

func (s *Service) post(ctx context.Context, identity shared.Identity, id uuid.UUID, approve bool) (*JournalEntry, error) {
	var posted *JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if entry.Status == StatusPosted {
			return shared.ErrEntryAlreadyPosted
		}
		if approve {
			if entry.Status != StatusPending {
				return shared.ErrInvalidState
			}
			approvedAt := s.now()
			entry.ApprovedBy = &identity.UserID
			entry.ApprovedAt = &approvedAt
		}
		if !entry.Editable() {
			return shared.ErrInvalidState
		}
		if entry.ApprovalRequired && entry.ApprovedBy == nil {
			return shared.ErrInvalidState.WithMessage("entry requires approval before posting")
		}
		inputs := make([]LineInput, 0, len(entry.Lines))
		for _, line := range entry.Lines {
			inputs = append(inputs, LineInput{AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit})
		}
		if _, _, err := validateLines(inputs); err != nil {
			return err
		}

		now := s.now()
		if err := s.appendLedgerRows(ctx, tx, entry, "JournalEntry", now); err != nil {
			return err
		}
		entry.Status = StatusPosted
		entry.PostedAt = &now
		entry.PostedBy = &identity.UserID
		if err := tx.MarkPosted(ctx, entry); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		s.recordPosting("failed")
		return nil, err
	}
	s.recordPosting("posted")
	s.bump(ctx, identity.TenantID)
	return posted, nil
}

// Reverse creates an offsetting entry with debit and credit swapped and marks
// the original Reversed. Both sides stay in the ledger; nothing is netted out.
func (s *Service) Reverse(ctx context.Context, identity shared.Identity, id uuid.UUID, reason string) (*JournalEntry, error) {
	var reversal *JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if original.Status != StatusPosted {
			return shared.ErrEntryNotPosted
		}

		now := s.now()
		rev := &JournalEntry{
			ID:              uuid.New(),
			TenantID:        original.TenantID,
			EntryNumber:     "REV-" + original.EntryNumber,
			EntryDate:       now,
			EntryType:       original.EntryType,
			ReferenceNumber: original.EntryNumber,
			Description:     fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, reason),
			Lines:           reverseLines(original.Lines),
			TotalDebit:      original.TotalCredit,
			TotalCredit:     original.TotalDebit,
			Status:          StatusPosted,
			PostedAt:        &now,
			PostedBy:        &identity.UserID,
			CreatedBy:       identity.UserID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.InsertEntry(ctx, rev); err != nil {
			return err
		}
		if err := s.appendLedgerRows(ctx, tx, rev, "Reversal", now); err != nil {
			return err
		}

		original.ReversedAt = &now
		original.ReversedBy = &identity.UserID
		original.ReversalReason = reason
		if err := tx.MarkReversed(ctx, original); err != nil {
			return err
		}
		reversal = rev
		return nil
	})
	if err != nil {
		s.recordPosting("reverse_failed")
		return nil, err
	}
	s.recordPosting("reversed")
	s.bump(ctx, identity.TenantID)
	return reversal, nil
}

// appendLedgerRows writes one ledger transaction per line. Each line's account
// must exist and be Active. BalanceAfter is derived from the opening balance
// plus all prior ledger activity, adjusted for earlier lines of this same
// entry hitting the same account.
func (s *Service) appendLedgerRows(ctx context.Context, tx TxRepository, entry *JournalEntry, referenceType string, now time.Time) error {
	deltas := make(map[uuid.UUID]float64)
	for _, line := range entry.Lines {
		account, err := tx.GetPostingAccount(ctx, entry.TenantID, line.AccountID)
		if err != nil {
			return err
		}
		if account.Status != accounts.StatusActive {
			return shared.ErrInvalidAccount.WithMessage("account %s is not active", line.AccountID)
		}
		debitSum, creditSum, err := tx.AccountActivity(ctx, entry.TenantID, line.AccountID)
		if err != nil {
			return err
		}
		base := account.OpeningBalance + creditSum - debitSum + deltas[line.AccountID]

		txn := transactions.Transaction{
			ID:              uuid.New(),
			TenantID:        entry.TenantID,
			AccountID:       line.AccountID,
			JournalEntryID:  entry.ID,
			TransactionDate: entry.EntryDate,
			Description:     lineDescription(line, entry),
			ReferenceType:   referenceType,
			CreatedAt:       now,
		}
		if line.Debit > 0 {
			txn.Type = transactions.TypeDebit
			txn.Amount = line.Debit
		} else {
			txn.Type = transactions.TypeCredit
			txn.Amount = line.Credit
		}
		txn.BalanceAfter = round2(base + txn.Signed())
		deltas[line.AccountID] += txn.Signed()

		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

func reverseLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			ID:          uuid.New(),
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
		})
	}
	return out
}

func lineDescription(line Line, entry *JournalEntry) string {
	if line.Description != "" {
		return line.Description
	}
	return entry.Description
}

func (s *Service) recordPosting(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPosting(outcome)
	}
}

func (s *Service) bump(ctx context.Context, tenantID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx, tenantID)
	}
}
