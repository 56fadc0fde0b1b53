package accounts

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/shared"
)

// Service coordinates chart of accounts operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the accounts service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create adds an account to the tenant chart of accounts.
func (s *Service) Create(ctx context.Context, identity shared.Identity, req CreateRequest) (*Account, error) {
	if req.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, identity.TenantID, *req.ParentID); err != nil {
			return nil, shared.ErrInvalidAccount.WithMessage("parent account not found")
		}
	}

	now := s.now()
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "INR"
	}
	account := &Account{
		ID:                 uuid.New(),
		TenantID:           identity.TenantID,
		Code:               strings.TrimSpace(req.Code),
		Name:               strings.TrimSpace(req.Name),
		Type:               Type(req.Type),
		Category:           req.Category,
		ParentID:           req.ParentID,
		Description:        req.Description,
		OpeningBalance:     req.OpeningBalance,
		OpeningBalanceDate: req.OpeningBalanceDate,
		Currency:           currency,
		Status:             StatusActive,
		TaxApplicable:      req.TaxApplicable,
		GSTRate:            req.GSTRate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, identity shared.Identity, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, identity.TenantID, id)
}

// List returns a filtered page of accounts.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Account, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update applies partial changes to an account. Changing the parent re-checks
// the ancestor chain for cycles.
func (s *Service) Update(ctx context.Context, identity shared.Identity, id uuid.UUID, req UpdateRequest) (*Account, error) {
	account, err := s.repo.GetByID(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}

	if req.ClearParent {
		account.ParentID = nil
	} else if req.ParentID != nil {
		if err := s.checkParentChain(ctx, identity.TenantID, id, *req.ParentID); err != nil {
			return nil, err
		}
		account.ParentID = req.ParentID
	}
	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		account.Category = *req.Category
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.TaxApplicable != nil {
		account.TaxApplicable = *req.TaxApplicable
	}
	if req.GSTRate != nil {
		account.GSTRate = *req.GSTRate
	}
	account.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Deactivate marks an account Inactive, blocking new postings against it.
func (s *Service) Deactivate(ctx context.Context, identity shared.Identity, id uuid.UUID) error {
	return s.repo.SetStatus(ctx, identity.TenantID, id, StatusInactive)
}

// Archive tombstones an account. Ledger history referencing it is retained.
func (s *Service) Archive(ctx context.Context, identity shared.Identity, id uuid.UUID) error {
	return s.repo.SetStatus(ctx, identity.TenantID, id, StatusArchived)
}

// Tree returns the full chart of accounts as a parent/child hierarchy.
func (s *Service) Tree(ctx context.Context, identity shared.Identity) ([]*TreeNode, error) {
	accounts, err := s.repo.ListAll(ctx, identity.TenantID)
	if err != nil {
		return nil, err
	}
	nodes := make(map[uuid.UUID]*TreeNode, len(accounts))
	for i := range accounts {
		nodes[accounts[i].ID] = &TreeNode{Account: accounts[i], Children: []*TreeNode{}}
	}
	var roots []*TreeNode
	for _, node := range nodes {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	sortTree(roots)
	return roots, nil
}

func sortTree(nodes []*TreeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	for _, node := range nodes {
		sortTree(node.Children)
	}
}

// checkParentChain verifies the proposed parent exists and that walking its
// ancestors never returns to the account being updated.
func (s *Service) checkParentChain(ctx context.Context, tenantID, accountID, parentID uuid.UUID) error {
	if parentID == accountID {
		return shared.ErrParentCycle
	}
	seen := map[uuid.UUID]bool{accountID: true}
	current := parentID
	for {
		if seen[current] {
			return shared.ErrParentCycle
		}
		seen[current] = true
		parent, err := s.repo.GetByID(ctx, tenantID, current)
		if err != nil {
			return shared.ErrInvalidAccount.WithMessage("parent account not found")
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
}
