package handler

import (
	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/bitfantasy/toolroom/internal/tools/sse"
	"github.com/gin-gonic/gin"
)

type ToolTypeHandler struct {
	svc   *service.CatalogService
	stock *service.StockService
	hub   *sse.Hub
}

func NewToolTypeHandler(svc *service.CatalogService, stock *service.StockService, hub *sse.Hub) *ToolTypeHandler {
	return &ToolTypeHandler{svc: svc, stock: stock, hub: hub}
}

// List GET /tool-types?category_id=&subcategory_id=&search=
func (h *ToolTypeHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "category_id", "subcategory_id", "search")
	items, total, err := h.svc.ListToolTypes(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Paged(c, items, total, page, pageSize)
}

// Get GET /tool-types/:id
func (h *ToolTypeHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.svc.GetToolType(ctx, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	summary, err := h.stock.ComputeStock(ctx, t.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, service.ToolTypeWithStock{ToolType: *t, Stock: *summary})
}

// Create POST /tool-types
func (h *ToolTypeHandler) Create(c *gin.Context) {
	var req service.CreateToolTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := h.svc.CreateToolType(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, t)
}

// Update PUT /tool-types/:id
func (h *ToolTypeHandler) Update(c *gin.Context) {
	var req service.UpdateToolTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := h.svc.UpdateToolType(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishStockUpdate(t.ID, "catalog")
	Success(c, t)
}

// Delete DELETE /tool-types/:id
func (h *ToolTypeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteToolType(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishStockUpdate(id, "delete")
	Success(c, gin.H{"deleted": true})
}

// Stock GET /tool-types/:id/stock
func (h *ToolTypeHandler) Stock(c *gin.Context) {
	summary, err := h.stock.ComputeStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, summary)
}

// StockAll GET /stock
func (h *ToolTypeHandler) StockAll(c *gin.Context) {
	all, err := h.stock.ComputeStockAll(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": all})
}
