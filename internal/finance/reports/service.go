package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/campusledger/campusledger/internal/shared"
)

// Service composes the pure report builders with the repository and cache.
// Concurrent requests for the same report share one build via singleflight.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs the reports service. Cache may be nil, in which case
// every request rebuilds.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// TrialBalance builds the trial balance as of a date.
func (s *Service) TrialBalance(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (TrialBalance, error) {
	var tb TrialBalance
	err := s.cached(ctx, tenantID, &tb,
		[]string{"reports", "tb", asOf.Format("2006-01-02")},
		func(ctx context.Context) (any, error) {
			balances, err := s.repo.AccountBalances(ctx, tenantID, asOf)
			if err != nil {
				return nil, err
			}
			return BuildTrialBalance(balances, asOf), nil
		})
	return tb, err
}

// BalanceSheet builds the balance sheet as of a date.
func (s *Service) BalanceSheet(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (BalanceSheet, error) {
	var bs BalanceSheet
	err := s.cached(ctx, tenantID, &bs,
		[]string{"reports", "bs", asOf.Format("2006-01-02")},
		func(ctx context.Context) (any, error) {
			balances, err := s.repo.AccountBalances(ctx, tenantID, asOf)
			if err != nil {
				return nil, err
			}
			return BuildBalanceSheet(balances, asOf), nil
		})
	return bs, err
}

// IncomeStatement builds the income statement over a mandatory date range.
func (s *Service) IncomeStatement(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (IncomeStatement, error) {
	if end.Before(start) {
		return IncomeStatement{}, shared.ErrValidation.WithMessage("endDate must not precede startDate")
	}
	var is IncomeStatement
	err := s.cached(ctx, tenantID, &is,
		[]string{"reports", "is", start.Format("2006-01-02"), end.Format("2006-01-02")},
		func(ctx context.Context) (any, error) {
			balances, err := s.repo.RangeActivity(ctx, tenantID, start, end)
			if err != nil {
				return nil, err
			}
			return BuildIncomeStatement(balances, start, end), nil
		})
	return is, err
}

// AccountLedger builds the running-balance statement for one account. Ledger
// statements are not cached: the per-account row sets are too granular to be
// worth versioned keys.
func (s *Service) AccountLedger(ctx context.Context, tenantID, accountID uuid.UUID, from, to *time.Time) (AccountLedger, error) {
	header, err := s.repo.AccountHeader(ctx, tenantID, accountID)
	if err != nil {
		return AccountLedger{}, err
	}
	txns, err := s.repo.AccountTransactions(ctx, tenantID, accountID, from, to)
	if err != nil {
		return AccountLedger{}, err
	}
	return BuildAccountLedger(header.AccountID, header.Code, header.Name, header.Opening, txns), nil
}

// Bump invalidates the tenant's cached reports. Called by journal posting.
func (s *Service) Bump(ctx context.Context, tenantID uuid.UUID) error {
	return s.cache.Bump(ctx, tenantID)
}

func (s *Service) cached(ctx context.Context, tenantID uuid.UUID, dest any, keyParts []string, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, tenantID, keyParts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (any, error) {
		value, err, _ := s.group.Do(key, func() (any, error) {
			return loader(ctx)
		})
		return value, err
	})
}
