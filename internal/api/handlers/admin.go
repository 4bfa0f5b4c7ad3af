package handlers

import (
	"net/http"

	"github.com/geoinsight/backend/internal/service"
	"go.uber.org/zap"
)

// AdminHandler exposes maintenance operations that are not part of the
// regular user-facing surface.
type AdminHandler struct {
	tracking *service.TrackingService
	logger   *zap.Logger
}

func NewAdminHandler(tracking *service.TrackingService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{tracking: tracking, logger: logger}
}

type RebalanceResponse struct {
	Status string `json:"status"`
}

// Rebalance recomputes the tracked set from scratch. Synchronous; with
// a large player table this can take a few seconds.
func (h *AdminHandler) Rebalance(w http.ResponseWriter, r *http.Request) {
	if err := h.tracking.Rebalance(r.Context()); err != nil {
		h.logger.Error("rebalance failed", zap.Error(err))
		http.Error(w, "Rebalance failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, RebalanceResponse{Status: "ok"})
}
