package journals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/platform/httpx"
	"github.com/campusledger/campusledger/internal/shared"
)

// Handler serves journal entry endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	idempotency *shared.IdempotencyStore
}

// NewHandler constructs a Handler. The idempotency store may be nil, in
// which case Idempotency-Key headers are ignored.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, idempotency: idempotency}
}

// MountRoutes attaches journal routes to the finance router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/journal-entries", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{entryID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Post("/submit", h.submit)
			r.Post("/approve", h.approve)
			r.Post("/reject", h.reject)
			r.Post("/post", h.post)
			r.Post("/reverse", h.reverse)
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), identity.TenantID, idemKey, "journals"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Fail(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "request already processed", nil)
				return
			}
			httpx.RespondError(w, err)
			return
		}
	}
	entry, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		if idemKey != "" && h.idempotency != nil {
			if delErr := h.idempotency.Delete(r.Context(), identity.TenantID, idemKey); delErr != nil {
				h.logger.Warn("idempotency rollback", slog.Any("error", delErr))
			}
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, entry, "journal entry created")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	filter := ListFilter{
		TenantID:  identity.TenantID,
		Status:    Status(r.URL.Query().Get("status")),
		EntryType: EntryType(r.URL.Query().Get("entryType")),
		Page:      page,
		PerPage:   perPage,
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
	httpx.OK(w, map[string]any{"journalEntries": items, "pagination": pagination}, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entry, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Update(r.Context(), identity, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entry, "journal entry updated")
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Submit, "journal entry submitted", false)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve, "journal entry approved and posted", true)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject, "journal entry rejected", true)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Post, "journal entry posted", true)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, identity shared.Identity, id uuid.UUID) (*JournalEntry, error),
	message string, needsApprover bool) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	if needsApprover && !identity.CanApprove() {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := fn(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entry, message)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	if !identity.CanApprove() {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var req ReverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	reversal, err := h.service.Reverse(r.Context(), identity, id, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, reversal, "journal entry reversed")
}

func entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func requireWriter(w http.ResponseWriter, r *http.Request) (shared.Identity, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok || !identity.CanWrite() {
		httpx.RespondError(w, shared.ErrForbidden)
		return shared.Identity{}, false
	}
	return identity, true
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
