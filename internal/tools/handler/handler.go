package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/bitfantasy/toolroom/internal/tools/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the toolroom HTTP handlers.
type Handlers struct {
	ToolType      *ToolTypeHandler
	Instance      *InstanceHandler
	Checkout      *CheckoutHandler
	Reference     *ReferenceHandler
	Invoice       *InvoiceHandler
	Order         *OrderHandler
	Replenishment *ReplenishmentHandler
	SSE           *SSEHandler
}

func NewHandlers(svc *service.Services, hub *sse.Hub, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		ToolType:      NewToolTypeHandler(svc.Catalog, svc.Stock, hub),
		Instance:      NewInstanceHandler(svc.Ledger, hub),
		Checkout:      NewCheckoutHandler(svc.Checkout, hub),
		Reference:     NewReferenceHandler(svc.Reference),
		Invoice:       NewInvoiceHandler(svc.Invoice),
		Order:         NewOrderHandler(svc.Order, hub),
		Replenishment: NewReplenishmentHandler(svc.Replenishment, hub),
		SSE:           NewSSEHandler(hub, log),
	}
}

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse is the data of a paged list.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Paged replies with one page of items.
func Paged(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Error replies with code; the HTTP status is code / 100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Fail maps a service error onto the response codes.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrOverDelivery):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		Error(c, 40900, err.Error())
	case errors.Is(err, service.ErrAlreadyInUse), errors.Is(err, service.ErrAlreadyClosed):
		Error(c, 40901, err.Error())
	default:
		_ = c.Error(err)
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetUserName prefers the display name and falls back to the user id.
func GetUserName(c *gin.Context) string {
	if name := c.GetString("user_name"); name != "" {
		return name
	}
	return GetUserID(c)
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// queryFilters collects the non-empty query parameters named by keys.
func queryFilters(c *gin.Context, keys ...string) map[string]string {
	filters := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			filters[k] = v
		}
	}
	return filters
}
