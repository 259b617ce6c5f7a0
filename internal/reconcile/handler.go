package reconcile

import (
	"net/http"

	apperrors "roomsync/pkg/errors"
	httputil "roomsync/pkg/http"
	"roomsync/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type SweepHandler struct {
	sweeper *Sweeper
	log     *logger.Logger
}

func NewSweepHandler(sweeper *Sweeper, log *logger.Logger) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
		log:     log,
	}
}

// Run triggers a sweep and returns its report. It waits for a scheduled
// sweep already in progress.
func (h *SweepHandler) Run(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		h.log.Error("Manual reconciliation sweep failed", "error", err)
		if writeErr := httputil.WriteError(w, apperrors.Internal("Reconciliation sweep failed", err)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Run", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Run", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SweepHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reconciliation/sweep", h.Run)
}
