package transactions

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/platform/httpx"
	"github.com/campusledger/campusledger/internal/shared"
)

// Handler serves ledger read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches transaction routes to the finance router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Get("/journal-entries/{entryID}/transactions", h.forJournalEntry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	filter := ListFilter{
		TenantID: identity.TenantID,
		Type:     Type(r.URL.Query().Get("type")),
		Page:     page,
		PerPage:  perPage,
	}
	if raw := r.URL.Query().Get("accountId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidID)
			return
		}
		filter.AccountID = &id
	}
	var err error
	if filter.StartDate, err = parseDate(r.URL.Query().Get("startDate")); err != nil {
		httpx.BadRequest(w, "startDate must be YYYY-MM-DD")
		return
	}
	if filter.EndDate, err = parseDate(r.URL.Query().Get("endDate")); err != nil {
		httpx.BadRequest(w, "endDate must be YYYY-MM-DD")
		return
	}

	items, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"transactions": items, "pagination": pagination}, "")
}

func (h *Handler) forJournalEntry(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
		return
	}
	items, err := h.service.ForJournalEntry(r.Context(), identity.TenantID, entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, items, "")
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
