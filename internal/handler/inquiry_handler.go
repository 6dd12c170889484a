package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"malladmin/internal/model"
	"malladmin/internal/service"
)

type InquiryHandler struct {
	inquiries *service.InquiryService
	logger    *zap.Logger
}

func NewInquiryHandler(inquiries *service.InquiryService, logger *zap.Logger) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries, logger: logger}
}

func (h *InquiryHandler) List(c *gin.Context) {
	p, ok := listParams(c, h.logger, "mall_id")
	if !ok {
		return
	}
	page, err := h.inquiries.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *InquiryHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	q, err := h.inquiries.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *InquiryHandler) Create(c *gin.Context) {
	var in model.InquiryInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.inquiries.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *InquiryHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in model.InquiryInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.inquiries.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Respond handles POST /inquiries/:id/respond and resolves the inquiry.
func (h *InquiryHandler) Respond(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in model.InquiryResponse
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.inquiries.Respond(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *InquiryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.inquiries.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
