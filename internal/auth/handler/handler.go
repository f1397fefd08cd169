package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mintgate/internal/auth"
	"mintgate/internal/platform/middleware"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/httputil"
)

// Handler wires credential endpoints to the auth service.
type Handler struct {
	service *auth.Service
	logger  *slog.Logger
}

func New(service *auth.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the unauthenticated credential endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/token", h.HandleToken)
}

type credentialsRequest struct {
	Account string `json:"account"`
	Secret  string `json:"secret"`
}

func (r credentialsRequest) validate() error {
	if r.Account == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeBadRequest, "account and secret are required")
	}
	return nil
}

// HandleRegister handles POST /auth/register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[credentialsRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Register(ctx, req.Account, req.Secret); err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"request_id", middleware.GetRequestID(ctx),
			"account", req.Account,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"account": req.Account})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken handles POST /auth/token requests.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[credentialsRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.Token(ctx, req.Account, req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "token issuance rejected",
			"request_id", middleware.GetRequestID(ctx),
			"account", req.Account,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(auth.AccessTokenTTL.Seconds()),
	})
}
