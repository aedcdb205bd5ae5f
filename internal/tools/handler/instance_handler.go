package handler

import (
	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/bitfantasy/toolroom/internal/tools/sse"
	"github.com/gin-gonic/gin"
)

type InstanceHandler struct {
	svc *service.LedgerService
	hub *sse.Hub
}

func NewInstanceHandler(svc *service.LedgerService, hub *sse.Hub) *InstanceHandler {
	return &InstanceHandler{svc: svc, hub: hub}
}

// List GET /instances?tool_type_id=&state=&location_id=&order_id=
func (h *InstanceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "tool_type_id", "state", "location_id", "order_id")
	items, total, err := h.svc.ListInstances(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Paged(c, items, total, page, pageSize)
}

// Get GET /instances/:id
func (h *InstanceHandler) Get(c *gin.Context) {
	inst, err := h.svc.GetInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, inst)
}

// Create POST /instances
func (h *InstanceHandler) Create(c *gin.Context) {
	var req service.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	inst, err := h.svc.CreateInstance(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishStockUpdate(inst.ToolTypeID, "create")
	Created(c, inst)
}

// Update PUT /instances/:id
func (h *InstanceHandler) Update(c *gin.Context) {
	var req service.UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	inst, err := h.svc.UpdateInstance(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, inst)
}

// Delete DELETE /instances/:id
// Damaged instances are archived as a damage report before removal.
func (h *InstanceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	inst, err := h.svc.GetInstance(ctx, c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	archived, id, err := h.svc.DeleteDamagedInstance(ctx, inst.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	h.hub.PublishStockUpdate(inst.ToolTypeID, "delete")
	Success(c, gin.H{"deleted": true, "archived": archived, "instance_id": id})
}

// ListDamageReports GET /damage-reports?instance_id=
func (h *InstanceHandler) ListDamageReports(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListDamageReports(c.Request.Context(), page, pageSize, c.Query("instance_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Paged(c, items, total, page, pageSize)
}
