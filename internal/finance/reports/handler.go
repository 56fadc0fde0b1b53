package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/platform/httpx"
	"github.com/campusledger/campusledger/internal/shared"
)

// Handler serves report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches report routes to the finance router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/trial-balance/export", h.trialBalanceExport)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/income-statement", h.incomeStatement)
	r.Get("/ledger/{accountID}", h.accountLedger)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	asOf, ok := asOfDate(w, r)
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), identity.TenantID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, tb, "")
}

func (h *Handler) trialBalanceExport(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	asOf, ok := asOfDate(w, r)
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), identity.TenantID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payload, err := ExportTrialBalanceXLSX(tb)
	if err != nil {
		h.logger.Error("trial balance export failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trial-balance-%s.xlsx"`, tb.AsOf))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	asOf, ok := asOfDate(w, r)
	if !ok {
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), identity.TenantID, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, bs, "")
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("startDate"))
	if err != nil {
		httpx.BadRequest(w, "startDate is required (YYYY-MM-DD)")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("endDate"))
	if err != nil {
		httpx.BadRequest(w, "endDate is required (YYYY-MM-DD)")
		return
	}
	is, err := h.service.IncomeStatement(r.Context(), identity.TenantID, start, end)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, is, "")
}

func (h *Handler) accountLedger(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
		return
	}
	from, err := optionalDate(r.URL.Query().Get("startDate"))
	if err != nil {
		httpx.BadRequest(w, "startDate must be YYYY-MM-DD")
		return
	}
	to, err := optionalDate(r.URL.Query().Get("endDate"))
	if err != nil {
		httpx.BadRequest(w, "endDate must be YYYY-MM-DD")
		return
	}
	ledger, err := h.service.AccountLedger(r.Context(), identity.TenantID, accountID, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, ledger, "")
}

// asOfDate reads the asOfDate query parameter (asOf is accepted as an
// alias), defaulting to today.
func asOfDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("asOfDate")
	if raw == "" {
		raw = r.URL.Query().Get("asOf")
	}
	if raw == "" {
		return time.Now(), true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.BadRequest(w, "asOfDate must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return asOf, true
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
