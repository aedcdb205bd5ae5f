package handler

import (
	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/gin-gonic/gin"
)

// ReferenceHandler serves the master data: suppliers, employees, machines,
// categories and storage locations.
type ReferenceHandler struct {
	svc *service.ReferenceService
}

func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// ==================== Suppliers ====================

func (h *ReferenceHandler) ListSuppliers(c *gin.Context) {
	items, err := h.svc.ListSuppliers(c.Request.Context(), c.Query("search"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *ReferenceHandler) GetSupplier(c *gin.Context) {
	s, err := h.svc.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, s)
}

func (h *ReferenceHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.svc.CreateSupplier(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, s)
}

func (h *ReferenceHandler) UpdateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.svc.UpdateSupplier(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, s)
}

func (h *ReferenceHandler) DeleteSupplier(c *gin.Context) {
	if err := h.svc.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ==================== Employees ====================

func (h *ReferenceHandler) ListEmployees(c *gin.Context) {
	items, err := h.svc.ListEmployees(c.Request.Context(), c.Query("search"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *ReferenceHandler) GetEmployee(c *gin.Context) {
	e, err := h.svc.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, e)
}

func (h *ReferenceHandler) CreateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.svc.CreateEmployee(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, e)
}

func (h *ReferenceHandler) UpdateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.svc.UpdateEmployee(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, e)
}

func (h *ReferenceHandler) DeleteEmployee(c *gin.Context) {
	if err := h.svc.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ==================== Machines ====================

func (h *ReferenceHandler) ListMachines(c *gin.Context) {
	items, err := h.svc.ListMachines(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *ReferenceHandler) GetMachine(c *gin.Context) {
	m, err := h.svc.GetMachine(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, m)
}

func (h *ReferenceHandler) CreateMachine(c *gin.Context) {
	var req service.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := h.svc.CreateMachine(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, m)
}

func (h *ReferenceHandler) UpdateMachine(c *gin.Context) {
	var req service.MachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := h.svc.UpdateMachine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, m)
}

func (h *ReferenceHandler) DeleteMachine(c *gin.Context) {
	if err := h.svc.DeleteMachine(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ==================== Categories ====================

func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	items, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *ReferenceHandler) GetCategory(c *gin.Context) {
	cat, err := h.svc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, cat)
}

func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, cat)
}

func (h *ReferenceHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cat, err := h.svc.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, cat)
}

func (h *ReferenceHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ListSubcategories GET /subcategories?category_id=
func (h *ReferenceHandler) ListSubcategories(c *gin.Context) {
	items, err := h.svc.ListSubcategories(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *ReferenceHandler) GetSubcategory(c *gin.Context) {
	sub, err := h.svc.GetSubcategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

func (h *ReferenceHandler) CreateSubcategory(c *gin.Context) {
	var req service.SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sub, err := h.svc.CreateSubcategory(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, sub)
}

func (h *ReferenceHandler) UpdateSubcategory(c *gin.Context) {
	var req service.SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sub, err := h.svc.UpdateSubcategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

func (h *ReferenceHandler) DeleteSubcategory(c *gin.Context) {
	if err := h.svc.DeleteSubcategory(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ==================== Locations ====================

// ListLocations GET /locations?cabinet=
func (h *ReferenceHandler) ListLocations(c *gin.Context) {
	items, err := h.svc.ListLocations(c.Request.Context(), c.Query("cabinet"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

func (h *ReferenceHandler) CreateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := h.svc.CreateLocation(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, l)
}

// CreateLocationsBulk POST /locations/bulk
func (h *ReferenceHandler) CreateLocationsBulk(c *gin.Context) {
	var req service.BulkLocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	created, err := h.svc.CreateLocationsBulk(c.Request.Context(), req.Cabinet, req.Columns, req.Shelves)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"created": created})
}

func (h *ReferenceHandler) DeleteLocation(c *gin.Context) {
	if err := h.svc.DeleteLocation(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
