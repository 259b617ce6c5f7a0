package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"roomsync/pkg/config"
	httputil "roomsync/pkg/http"
	"roomsync/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

const (
	statusOK          = "ok"
	statusReady       = "ready"
	statusUnavailable = "unavailable"
)

type HealthResponse struct {
	Status   string            `json:"status"`
	Database string            `json:"database,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// ReadyCheck probes one dependency the service cannot serve without.
type ReadyCheck struct {
	Name string
	Run  func(ctx context.Context) error
}

func MongoCheck(client *mongo.Client) ReadyCheck {
	return ReadyCheck{
		Name: "mongo",
		Run: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
}

type HealthHandler struct {
	backend string
	checks  []ReadyCheck
	log     *logger.Logger
}

// NewHealthHandler serves liveness and readiness. backend is reported as the
// database field; readiness fails when any check fails.
func NewHealthHandler(backend string, log *logger.Logger, checks ...ReadyCheck) *HealthHandler {
	return &HealthHandler{backend: backend, checks: checks, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, http.StatusOK, HealthResponse{Status: statusOK})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: statusReady, Database: h.backend}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for _, check := range h.checks {
		if err := check.Run(ctx); err != nil {
			h.log.Error("Readiness check failed", "check", check.Name, "error", err)
			resp.Checks[check.Name] = "error"
			resp.Status = statusUnavailable
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = statusOK
	}

	h.write(w, status, resp)
}

func (h *HealthHandler) write(w http.ResponseWriter, status int, resp HealthResponse) {
	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "health", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

func healthChecks(cfg *config.Config) (string, []ReadyCheck) {
	if !cfg.UsesMongo() || cfg.Client == nil || cfg.Client.Mongo == nil {
		return config.BackendMemory, nil
	}
	return config.BackendMongo, []ReadyCheck{MongoCheck(cfg.Client.Mongo)}
}
