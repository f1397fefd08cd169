package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mintgate/internal/oracle"
	"mintgate/internal/platform/middleware"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/httputil"
)

// Handler wires price feed endpoints to the oracle service.
type Handler struct {
	service *oracle.Service
	logger  *slog.Logger
}

func New(service *oracle.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public price endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sale/price", h.HandlePrice)
}

// RegisterProtected mounts the feed replacement endpoint.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Put("/admin/oracle", h.HandleSetGateway)
}

type priceResponse struct {
	Price  uint64 `json:"price"`
	Source string `json:"source"`
}

// HandlePrice handles GET /sale/price requests. The price is read through to
// the feed on every call; nothing is cached.
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.service.Price(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, priceResponse{Price: price, Source: h.service.GatewayRef()})
}

type setGatewayRequest struct {
	URL string `json:"url"`
}

// HandleSetGateway handles PUT /admin/oracle requests.
func (h *Handler) HandleSetGateway(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.Decode[setGatewayRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.URL == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "oracle url is required"))
		return
	}

	gw := oracle.NewHTTPGateway(req.URL, nil)
	if err := h.service.SetGateway(ctx, caller, gw); err != nil {
		h.logger.WarnContext(ctx, "oracle change rejected",
			"request_id", middleware.GetRequestID(ctx),
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, setGatewayRequest{URL: req.URL})
}
