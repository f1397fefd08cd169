package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mintgate/internal/platform/middleware"
	"mintgate/internal/sale"
	"mintgate/pkg/platform/httputil"
)

// Handler wires purchase and treasury endpoints to the sale engine.
type Handler struct {
	engine *sale.Engine
	logger *slog.Logger
}

func New(engine *sale.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the read-only sale endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sale/totals", h.HandleTotals)
}

// RegisterProtected mounts the token-authenticated endpoints.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/sale/purchase", h.HandlePurchase)
	r.Get("/sale/purchases", h.HandlePurchases)
	r.Put("/admin/wallet", h.HandleSetWallet)
}

type purchaseRequest struct {
	Beneficiary string `json:"beneficiary,omitempty"`
	Value       uint64 `json:"value"`
	PaymentRef  string `json:"payment_ref,omitempty"`
}

type purchaseResponse struct {
	ID          string    `json:"id"`
	Purchaser   string    `json:"purchaser"`
	Beneficiary string    `json:"beneficiary"`
	Value       uint64    `json:"value"`
	Amount      uint64    `json:"amount"`
	Rate        uint64    `json:"rate"`
	PhaseIndex  int       `json:"phase_index"`
	CreatedAt   time.Time `json:"created_at"`
}

func fromPurchase(p sale.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:          p.ID.String(),
		Purchaser:   p.Purchaser,
		Beneficiary: p.Beneficiary,
		Value:       p.Value,
		Amount:      p.Amount,
		Rate:        p.Rate,
		PhaseIndex:  p.PhaseIndex,
		CreatedAt:   p.CreatedAt,
	}
}

// HandlePurchase handles POST /sale/purchase requests. The purchaser is the
// authenticated account; the beneficiary defaults to it.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetAccount(ctx)
	start := time.Now()

	req, ok := httputil.Decode[purchaseRequest](w, r, h.logger)
	if !ok {
		return
	}

	p, err := h.engine.Purchase(ctx, sale.PurchaseRequest{
		Purchaser:   caller,
		Beneficiary: req.Beneficiary,
		Value:       req.Value,
		PaymentRef:  req.PaymentRef,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "purchase rejected",
			"request_id", middleware.GetRequestID(ctx),
			"purchaser", caller,
			"value", req.Value,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "purchase accepted",
		"request_id", middleware.GetRequestID(ctx),
		"purchaser", caller,
		"amount", p.Amount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromPurchase(p))
}

// HandlePurchases handles GET /sale/purchases requests.
func (h *Handler) HandlePurchases(w http.ResponseWriter, r *http.Request) {
	ps, err := h.engine.Purchases(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, fromPurchase(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type totalsResponse struct {
	TotalRaised uint64 `json:"total_raised"`
	TotalIssued uint64 `json:"total_issued"`
	Wallet      string `json:"wallet"`
}

// HandleTotals handles GET /sale/totals requests.
func (h *Handler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	t, err := h.engine.Totals(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, totalsResponse{
		TotalRaised: t.TotalRaised,
		TotalIssued: t.TotalIssued,
		Wallet:      h.engine.Wallet(),
	})
}

type setWalletRequest struct {
	Account string `json:"account"`
}

// HandleSetWallet handles PUT /admin/wallet requests.
func (h *Handler) HandleSetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.Decode[setWalletRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.engine.SetWallet(ctx, caller, req.Account); err != nil {
		h.logger.WarnContext(ctx, "wallet change rejected",
			"request_id", middleware.GetRequestID(ctx),
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, setWalletRequest{Account: req.Account})
}
