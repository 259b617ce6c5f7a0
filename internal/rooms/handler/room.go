package handler

import (
	"context"
	"net/http"

	"roomsync/internal/rooms/service"
	httputil "roomsync/pkg/http"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		log:     log,
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := httputil.DecodeJSON(r, &room, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	created, err := h.service.Create(r.Context(), &room)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "GetByID", func(ctx context.Context) (any, error) {
		return h.service.GetByID(ctx, ps.ByName("id"))
	})
}

// List returns all rooms, or only those of ?room_type=.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.List(r.Context(), r.URL.Query().Get("room_type"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, rooms, len(rooms), len(rooms)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *RoomHandler) GetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "GetStatus", func(ctx context.Context) (any, error) {
		return h.service.GetStatus(ctx, ps.ByName("id"))
	})
}

func (h *RoomHandler) GetStatusByNumber(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "GetStatusByNumber", func(ctx context.Context) (any, error) {
		return h.service.GetStatusByNumber(ctx, ps.ByName("number"))
	})
}

func (h *RoomHandler) Block(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "Block", func(ctx context.Context) (any, error) {
		return h.service.SetBlocked(ctx, ps.ByName("id"), true)
	})
}

func (h *RoomHandler) Unblock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "Unblock", func(ctx context.Context) (any, error) {
		return h.service.SetBlocked(ctx, ps.ByName("id"), false)
	})
}

func (h *RoomHandler) OutOfService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "OutOfService", func(ctx context.Context) (any, error) {
		return h.service.SetOutOfService(ctx, ps.ByName("id"), true)
	})
}

func (h *RoomHandler) InService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "InService", func(ctx context.Context) (any, error) {
		return h.service.SetOutOfService(ctx, ps.ByName("id"), false)
	})
}

func (h *RoomHandler) apply(w http.ResponseWriter, r *http.Request, name string, op func(context.Context) (any, error)) {
	result, err := op(r.Context())
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rooms", h.Create)
	router.GET("/api/v1/rooms", h.List)
	router.GET("/api/v1/rooms/id/:id", h.GetByID)
	router.GET("/api/v1/rooms/id/:id/status", h.GetStatus)
	router.GET("/api/v1/rooms/number/:number/status", h.GetStatusByNumber)
	router.POST("/api/v1/rooms/id/:id/block", h.Block)
	router.POST("/api/v1/rooms/id/:id/unblock", h.Unblock)
	router.POST("/api/v1/rooms/id/:id/out-of-service", h.OutOfService)
	router.POST("/api/v1/rooms/id/:id/in-service", h.InService)
}
