package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mintgate/internal/platform/middleware"
	"mintgate/internal/roles"
	"mintgate/pkg/platform/httputil"
)

// Handler wires role administration endpoints to the roles service.
type Handler struct {
	service *roles.Service
	logger  *slog.Logger
}

func New(service *roles.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the role endpoints. All of them are owner-only,
// which the service enforces.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/admin/roles/grant", h.HandleGrant)
	r.Post("/admin/roles/revoke", h.HandleRevoke)
	r.Get("/admin/roles/{account}", h.HandleCheck)
}

type roleChangeRequest struct {
	Account string `json:"account"`
	Role    string `json:"role"`
}

// HandleGrant handles POST /admin/roles/grant requests.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, "grant", h.service.Grant)
}

// HandleRevoke handles POST /admin/roles/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, "revoke", h.service.Revoke)
}

func (h *Handler) change(w http.ResponseWriter, r *http.Request, action string,
	op func(ctx context.Context, caller, target string, role roles.Role) error) {
	ctx := r.Context()
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.Decode[roleChangeRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := op(ctx, caller, req.Account, roles.Role(req.Role)); err != nil {
		h.logger.WarnContext(ctx, "role change rejected",
			"request_id", middleware.GetRequestID(ctx),
			"caller", caller,
			"action", action,
			"target", req.Account,
			"role", req.Role,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "role changed",
		"caller", caller,
		"action", action,
		"target", req.Account,
		"role", req.Role,
	)
	httputil.WriteJSON(w, http.StatusOK, req)
}

type roleCheckResponse struct {
	Account string `json:"account"`
	Owner   bool   `json:"owner"`
	Admin   bool   `json:"admin"`
}

// HandleCheck handles GET /admin/roles/{account} requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := chi.URLParam(r, "account")

	admin, err := h.service.HasRole(ctx, account, roles.RoleAdmin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roleCheckResponse{
		Account: account,
		Owner:   h.service.IsOwner(account),
		Admin:   admin,
	})
}
