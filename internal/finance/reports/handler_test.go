package reports

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/shared"
)

type stubRepo struct {
	lastAsOf time.Time
}

func (r *stubRepo) AccountBalances(_ context.Context, _ uuid.UUID, asOf time.Time) ([]AccountBalance, error) {
	r.lastAsOf = asOf
	return nil, nil
}

func (r *stubRepo) RangeActivity(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]AccountBalance, error) {
	return nil, nil
}

func (r *stubRepo) AccountHeader(_ context.Context, _, _ uuid.UUID) (AccountBalance, error) {
	return AccountBalance{}, nil
}

func (r *stubRepo) AccountTransactions(_ context.Context, _, _ uuid.UUID, _, _ *time.Time) ([]transactions.Transaction, error) {
	return nil, nil
}

func serveReport(t *testing.T, repo Repository, target string) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, nil))

	router := chi.NewRouter()
	router.Route("/finance", handler.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	identity := shared.Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: shared.RoleViewer}
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTrialBalanceAsOfDateParam(t *testing.T) {
	repo := &stubRepo{}
	rec := serveReport(t, repo, "/finance/trial-balance?asOfDate=2026-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-03-31", repo.lastAsOf.Format("2006-01-02"))

	t.Run("asOf alias still accepted", func(t *testing.T) {
		repo := &stubRepo{}
		rec := serveReport(t, repo, "/finance/balance-sheet?asOf=2026-06-30")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2026-06-30", repo.lastAsOf.Format("2006-01-02"))
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		rec := serveReport(t, &stubRepo{}, "/finance/trial-balance?asOfDate=31-03-2026")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing date defaults to today", func(t *testing.T) {
		repo := &stubRepo{}
		rec := serveReport(t, repo, "/finance/trial-balance")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Now().Format("2006-01-02"), repo.lastAsOf.Format("2006-01-02"))
	})
}
