package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings *service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// List handles GET /bookings?shop_id=&user_id=&status=&q=
func (h *BookingHandler) List(c *gin.Context) {
	p, ok := listParams(c, h.logger, "shop_id", "user_id")
	if !ok {
		return
	}
	page, err := h.bookings.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Create(c *gin.Context) {
	var in model.BookingInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in model.BookingInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.bookings.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type bookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req bookingStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.bookings.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
