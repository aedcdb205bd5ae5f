package handler

import (
	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/bitfantasy/toolroom/internal/tools/sse"
	"github.com/gin-gonic/gin"
)

type ReplenishmentHandler struct {
	svc *service.ReplenishmentService
	hub *sse.Hub
}

func NewReplenishmentHandler(svc *service.ReplenishmentService, hub *sse.Hub) *ReplenishmentHandler {
	return &ReplenishmentHandler{svc: svc, hub: hub}
}

// List GET /suggestions
func (h *ReplenishmentHandler) List(c *gin.Context) {
	items, err := h.svc.ListSuggestions(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Generate POST /suggestions/generate
func (h *ReplenishmentHandler) Generate(c *gin.Context) {
	created, err := h.svc.GenerateSuggestions(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"created": len(created), "items": created})
}

// Add POST /suggestions
func (h *ReplenishmentHandler) Add(c *gin.Context) {
	var req service.AddSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.svc.AddSuggestion(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, s)
}

// Update PUT /suggestions/:id
func (h *ReplenishmentHandler) Update(c *gin.Context) {
	var req service.UpdateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.svc.UpdateSuggestion(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, s)
}

// Remove DELETE /suggestions/:id
func (h *ReplenishmentHandler) Remove(c *gin.Context) {
	if err := h.svc.RemoveSuggestion(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Finalize POST /suggestions/finalize
func (h *ReplenishmentHandler) Finalize(c *gin.Context) {
	orders, err := h.svc.FinalizeSuggestions(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	for _, o := range orders {
		h.hub.PublishOrderUpdate(o.ID, o.Status, "create")
	}
	Created(c, gin.H{"items": orders})
}
