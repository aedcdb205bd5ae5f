package handler

import (
	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/bitfantasy/toolroom/internal/tools/sse"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc *service.OrderService
	hub *sse.Hub
}

func NewOrderHandler(svc *service.OrderService, hub *sse.Hub) *OrderHandler {
	return &OrderHandler{svc: svc, hub: hub}
}

// List GET /orders?status=&supplier_id=&tool_type_id=&search=
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "status", "supplier_id", "tool_type_id", "search")
	items, total, err := h.svc.ListOrders(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Paged(c, items, total, page, pageSize)
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	detail, err := h.svc.GetOrderDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, detail)
}

// Verify POST /orders/:id/verify
func (h *OrderHandler) Verify(c *gin.Context) {
	o, err := h.svc.VerifyOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishOrderUpdate(o.ID, o.Status, "verify")
	Success(c, o)
}

// Send POST /orders/:id/send
func (h *OrderHandler) Send(c *gin.Context) {
	o, err := h.svc.SendOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishOrderUpdate(o.ID, o.Status, "send")
	Success(c, o)
}

// Export GET /orders/:id/export
func (h *OrderHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// RecordFulfillment POST /orders/:id/fulfillments
func (h *OrderHandler) RecordFulfillment(c *gin.Context) {
	var req service.FulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	o, err := h.svc.RecordFulfillment(c.Request.Context(), c.Param("id"), &req, GetUserName(c))
	if err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishOrderUpdate(o.ID, o.Status, "fulfillment")
	for _, id := range orderToolTypes(o) {
		h.hub.PublishStockUpdate(id, "fulfillment")
	}
	Success(c, o)
}

func orderToolTypes(o *entity.Order) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range o.Positions {
		if !seen[p.ToolTypeID] {
			seen[p.ToolTypeID] = true
			ids = append(ids, p.ToolTypeID)
		}
	}
	return ids
}
