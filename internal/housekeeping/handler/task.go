package handler

import (
	"context"
	"net/http"
	"strings"

	"roomsync/internal/housekeeping/service"
	httputil "roomsync/pkg/http"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TaskHandler struct {
	service service.HousekeepingService
	log     *logger.Logger
}

func NewTaskHandler(service service.HousekeepingService, log *logger.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		log:     log,
	}
}

type rejectRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateTaskRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	task, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, task); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	task, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, task); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// List serves the housekeeping queue. Query: room_id, status (comma
// separated), active=true.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	filter := model.TaskFilter{
		RoomID:     query.Get("room_id"),
		ActiveOnly: query.Get("active") == "true",
	}
	if raw := query.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, model.TaskStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}

	tasks, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, tasks, len(tasks), len(tasks)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "Start", func(ctx context.Context) (*model.HousekeepingTask, error) {
		return h.service.Start(ctx, ps.ByName("id"))
	})
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "Complete", func(ctx context.Context) (*model.HousekeepingTask, error) {
		return h.service.Complete(ctx, ps.ByName("id"))
	})
}

func (h *TaskHandler) Verify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "Verify", func(ctx context.Context) (*model.HousekeepingTask, error) {
		return h.service.Verify(ctx, ps.ByName("id"))
	})
}

func (h *TaskHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rejectRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.writeError(w, "Reject", err)
		return
	}
	h.apply(w, r, "Reject", func(ctx context.Context) (*model.HousekeepingTask, error) {
		return h.service.Reject(ctx, ps.ByName("id"), req.Notes)
	})
}

func (h *TaskHandler) apply(w http.ResponseWriter, r *http.Request, name string, op func(context.Context) (*model.HousekeepingTask, error)) {
	task, err := op(r.Context())
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, task); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *TaskHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *TaskHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/housekeeping/tasks", h.Create)
	router.GET("/api/v1/housekeeping/tasks", h.List)
	router.GET("/api/v1/housekeeping/tasks/id/:id", h.GetByID)
	router.POST("/api/v1/housekeeping/tasks/id/:id/start", h.Start)
	router.POST("/api/v1/housekeeping/tasks/id/:id/complete", h.Complete)
	router.POST("/api/v1/housekeeping/tasks/id/:id/verify", h.Verify)
	router.POST("/api/v1/housekeeping/tasks/id/:id/reject", h.Reject)
}
