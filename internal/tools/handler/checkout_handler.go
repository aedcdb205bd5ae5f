package handler

import (
	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/bitfantasy/toolroom/internal/tools/sse"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	svc *service.CheckoutService
	hub *sse.Hub
}

func NewCheckoutHandler(svc *service.CheckoutService, hub *sse.Hub) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, hub: hub}
}

// List GET /checkouts?tool_type_id=&instance_id=&employee_id=&open=true
func (h *CheckoutHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "tool_type_id", "instance_id", "employee_id", "open")
	items, total, err := h.svc.ListCheckouts(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Paged(c, items, total, page, pageSize)
}

// Get GET /checkouts/:id
func (h *CheckoutHandler) Get(c *gin.Context) {
	rec, err := h.svc.GetCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, rec)
}

// Create POST /checkouts
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rec, err := h.svc.Checkout(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	h.publish(rec, "checkout")
	Created(c, rec)
}

// Return POST /checkouts/:id/return
func (h *CheckoutHandler) Return(c *gin.Context) {
	var req service.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rec, err := h.svc.ReturnInstance(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	h.publish(rec, "return")
	Success(c, rec)
}

func (h *CheckoutHandler) publish(rec *entity.CheckoutRecord, action string) {
	if rec.Instance != nil {
		h.hub.PublishStockUpdate(rec.Instance.ToolTypeID, action)
	}
}
