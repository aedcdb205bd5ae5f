package handler

import (
	"io"
	"mime"
	"path/filepath"

	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	svc *service.InvoiceService
}

func NewInvoiceHandler(svc *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// List GET /invoices?supplier_id=&settled=&tool_type_id=
func (h *InvoiceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := queryFilters(c, "supplier_id", "settled", "tool_type_id")
	items, total, err := h.svc.ListInvoices(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Paged(c, items, total, page, pageSize)
}

// Get GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.svc.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, inv)
}

// Create POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	inv, err := h.svc.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, inv)
}

type settleRequest struct {
	Settled bool `json:"settled"`
}

// Settle POST /invoices/:id/settle
func (h *InvoiceHandler) Settle(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	inv, err := h.svc.SetInvoiceSettled(c.Request.Context(), c.Param("id"), req.Settled)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, inv)
}

// UploadFile POST /invoices/:id/file (multipart field "file")
func (h *InvoiceHandler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "read upload: "+err.Error())
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	inv, err := h.svc.UploadInvoiceFile(c.Request.Context(), c.Param("id"), src, fileHeader.Size, fileHeader.Filename, contentType)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, inv)
}

// DownloadFile GET /invoices/:id/file
func (h *InvoiceHandler) DownloadFile(c *gin.Context) {
	reader, inv, err := h.svc.DownloadInvoiceFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(inv.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename=\""+inv.FileName+"\"")
	c.Header("Content-Type", contentType)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}
