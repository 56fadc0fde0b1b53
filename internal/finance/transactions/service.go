package transactions

import (
	"context"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/shared"
)

// Service answers read queries against the ledger.
type Service struct {
	repo Repository
}

// NewService constructs the ledger query service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a filtered page of ledger rows, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Transaction, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// ForJournalEntry returns the rows generated by one posting.
func (s *Service) ForJournalEntry(ctx context.Context, tenantID, entryID uuid.UUID) ([]Transaction, error) {
	return s.repo.ListByJournalEntry(ctx, tenantID, entryID)
}
