package budget

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/platform/httpx"
	"github.com/campusledger/campusledger/internal/shared"
)

// Handler serves budget endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches budget routes to the finance router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{budgetID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Post("/transition", h.transition)
			r.Get("/vs-actuals", h.vsActuals)
			r.Post("/snapshots", h.triggerSnapshot)
			r.Get("/snapshots", h.listSnapshots)
		})
	})
	r.Get("/variance-snapshots/{snapshotID}", h.getSnapshot)
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
	budget, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, budget, "budget created")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.service.List(r.Context(), ListFilter{
		TenantID:      identity.TenantID,
		FinancialYear: r.URL.Query().Get("financialYear"),
		Status:        Status(r.URL.Query().Get("status")),
		Page:          page,
		PerPage:       perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"budgets": items, "pagination": pagination}, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	id, ok := budgetID(w, r)
	if !ok {
		return
	}
	budget, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, budget, "")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	id, ok := budgetID(w, r)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	target := Status(req.Status)
	// Approval and activation are reserved for approver roles.
	if (target == StatusApproved || target == StatusActive) && !identity.CanApprove() {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	budget, err := h.service.Transition(r.Context(), identity, id, target)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, budget, "budget status updated")
}

func (h *Handler) vsActuals(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	id, ok := budgetID(w, r)
	if !ok {
		return
	}
	rows, err := h.service.VsActuals(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rows, "")
}

func (h *Handler) triggerSnapshot(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	id, ok := budgetID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.TriggerSnapshot(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, snap, "variance snapshot queued")
}

func (h *Handler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	id, ok := budgetID(w, r)
	if !ok {
		return
	}
	snaps, err := h.service.ListSnapshots(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, snaps, "")
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "snapshotID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
		return
	}
	snap, err := h.service.GetSnapshot(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, snap, "")
}

func budgetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "budgetID"))
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
