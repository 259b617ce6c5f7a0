package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"roomsync/internal/bookings/service"
	apperrors "roomsync/pkg/errors"
	httputil "roomsync/pkg/http"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "GetByID", func(ctx context.Context) (*model.Booking, error) {
		return h.service.GetByID(ctx, ps.ByName("id"))
	})
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := httputil.ExtractLimit(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	var offset int64
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err = strconv.ParseInt(offsetStr, 10, 64)
		if err != nil || offset < 0 {
			h.writeError(w, "GetAll", apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr)))
			return
		}
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, int(total), limit); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingUpdate
	if err := httputil.DecodeJSON(r, &update, false); err != nil {
		h.writeError(w, "Update", err)
		return
	}
	h.apply(w, r, "Update", func(ctx context.Context) (*model.Booking, error) {
		return h.service.Update(ctx, ps.ByName("id"), &update)
	})
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "Confirm", func(ctx context.Context) (*model.Booking, error) {
		return h.service.Confirm(ctx, ps.ByName("id"))
	})
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "CheckIn", func(ctx context.Context) (*model.Booking, error) {
		return h.service.CheckIn(ctx, ps.ByName("id"))
	})
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "CheckOut", func(ctx context.Context) (*model.Booking, error) {
		return h.service.CheckOut(ctx, ps.ByName("id"))
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var opts model.CancelOptions
	if err := httputil.DecodeJSON(r, &opts, true); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	h.apply(w, r, "Cancel", func(ctx context.Context) (*model.Booking, error) {
		return h.service.Cancel(ctx, ps.ByName("id"), &opts)
	})
}

func (h *BookingHandler) NoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, "NoShow", func(ctx context.Context) (*model.Booking, error) {
		return h.service.MarkNoShow(ctx, ps.ByName("id"))
	})
}

func (h *BookingHandler) AddFolioLine(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var line model.FolioLine
	if err := httputil.DecodeJSON(r, &line, false); err != nil {
		h.writeError(w, "AddFolioLine", err)
		return
	}
	h.apply(w, r, "AddFolioLine", func(ctx context.Context) (*model.Booking, error) {
		return h.service.AddFolioLine(ctx, ps.ByName("id"), &line)
	})
}

func (h *BookingHandler) AddPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payment model.Payment
	if err := httputil.DecodeJSON(r, &payment, false); err != nil {
		h.writeError(w, "AddPayment", err)
		return
	}
	h.apply(w, r, "AddPayment", func(ctx context.Context) (*model.Booking, error) {
		return h.service.AddPayment(ctx, ps.ByName("id"), &payment)
	})
}

func (h *BookingHandler) apply(w http.ResponseWriter, r *http.Request, name string, op func(context.Context) (*model.Booking, error)) {
	booking, err := op(r.Context())
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.POST("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/bookings/id/:id/check-in", h.CheckIn)
	router.POST("/api/v1/bookings/id/:id/check-out", h.CheckOut)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/no-show", h.NoShow)
	router.POST("/api/v1/bookings/id/:id/folio/lines", h.AddFolioLine)
	router.POST("/api/v1/bookings/id/:id/folio/payments", h.AddPayment)
}
