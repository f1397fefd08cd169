package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mintgate/internal/phase"
	"mintgate/internal/platform/middleware"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/httputil"
)

// Handler wires phase registry endpoints to the phase service.
type Handler struct {
	service *phase.Service
	logger  *slog.Logger
}

func New(service *phase.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-only registry endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sale/phases", h.HandleList)
	r.Get("/sale/phases/active", h.HandleActive)
	r.Get("/sale/phases/{index}", h.HandleGet)
}

// RegisterProtected mounts the mutating endpoints. The router places these
// behind token authentication; role checks happen in the service.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/sale/phases", h.HandleAdd)
	r.Delete("/sale/phases/{index}", h.HandleDelete)
}

type addPhaseRequest struct {
	StartDate uint64 `json:"start_date"`
	EndDate   uint64 `json:"end_date"`
	PriceUSDc uint64 `json:"price_usdc"`
	Cap       uint64 `json:"cap"`
}

type phaseResponse struct {
	StartDate uint64 `json:"start_date"`
	EndDate   uint64 `json:"end_date"`
	PriceUSDc uint64 `json:"price_usdc"`
	Cap       uint64 `json:"cap"`
	Issued    uint64 `json:"issued"`
}

func fromPhase(p phase.Phase) phaseResponse {
	return phaseResponse{
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		PriceUSDc: p.PriceUSDc,
		Cap:       p.Cap,
		Issued:    p.Issued,
	}
}

// HandleAdd handles POST /sale/phases requests.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.Decode[addPhaseRequest](w, r, h.logger)
	if !ok {
		return
	}

	p, err := h.service.AddPhase(ctx, caller, req.StartDate, req.EndDate, req.PriceUSDc, req.Cap)
	if err != nil {
		h.logger.WarnContext(ctx, "phase add rejected",
			"request_id", middleware.GetRequestID(ctx),
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromPhase(p))
}

// HandleDelete handles DELETE /sale/phases/{index} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetAccount(ctx)

	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}

	if err := h.service.DelPhase(ctx, caller, index); err != nil {
		h.logger.WarnContext(ctx, "phase delete rejected",
			"request_id", middleware.GetRequestID(ctx),
			"caller", caller,
			"index", index,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleList handles GET /sale/phases requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	phases, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]phaseResponse, 0, len(phases))
	for _, p := range phases {
		out = append(out, fromPhase(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /sale/phases/{index} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPhase(r.Context(), index)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPhase(p))
}

type activeResponse struct {
	Index     int    `json:"index"`
	PriceUSDc uint64 `json:"price_usdc"`
	Cap       uint64 `json:"cap"`
}

// HandleActive handles GET /sale/phases/active requests. It reports the phase
// covering the current instant, mirroring what a purchase at this moment
// would be priced against.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	now := uint64(time.Now().Unix())
	p, idx, err := h.service.CurrentPhase(r.Context(), now)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, activeResponse{Index: idx, PriceUSDc: p.PriceUSDc, Cap: p.Cap})
}

func (h *Handler) pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "phase index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
