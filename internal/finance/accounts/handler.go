package accounts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusledger/campusledger/internal/platform/httpx"
	"github.com/campusledger/campusledger/internal/shared"
)

// Handler serves chart of accounts endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches account routes to the finance router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/hierarchy", h.hierarchy)
		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Post("/deactivate", h.deactivate)
			r.Post("/archive", h.archive)
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
	account, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, account, "account created")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	filter := ListFilter{
		TenantID: identity.TenantID,
		Type:     Type(r.URL.Query().Get("type")),
		Category: r.URL.Query().Get("category"),
		Status:   Status(r.URL.Query().Get("status")),
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		PerPage:  perPage,
	}
	items, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"accounts": items, "pagination": pagination}, "")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
		return
	}
	account, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, account, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
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
	account, err := h.service.Update(r.Context(), identity, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, account, "account updated")
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.Deactivate, "account deactivated")
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.Archive, "account archived")
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, identity shared.Identity, id uuid.UUID) error, message string) {
	identity, ok := requireWriter(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidID)
		return
	}
	if err := fn(r.Context(), identity, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil, message)
}

func (h *Handler) hierarchy(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	tree, err := h.service.Tree(r.Context(), identity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, tree, "")
}

func requireWriter(w http.ResponseWriter, r *http.Request) (shared.Identity, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok || !identity.CanWrite() {
		httpx.RespondError(w, shared.ErrForbidden)
		return shared.Identity{}, false
	}
	return identity, true
}
