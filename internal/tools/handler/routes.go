package handler

import (
	"github.com/bitfantasy/toolroom/internal/middleware"
	"github.com/gin-gonic/gin"
)

// PurchasingRole may change orders and the replenishment list.
const PurchasingRole = "purchasing"

// RegisterRoutes mounts the toolroom API on api, which must already carry
// the JWT middleware.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	api.GET("/events", h.SSE.Stream)

	toolTypes := api.Group("/tool-types")
	{
		toolTypes.GET("", h.ToolType.List)
		toolTypes.POST("", h.ToolType.Create)
		toolTypes.GET("/:id", h.ToolType.Get)
		toolTypes.PUT("/:id", h.ToolType.Update)
		toolTypes.DELETE("/:id", h.ToolType.Delete)
		toolTypes.GET("/:id/stock", h.ToolType.Stock)
	}
	api.GET("/stock", h.ToolType.StockAll)

	instances := api.Group("/instances")
	{
		instances.GET("", h.Instance.List)
		instances.POST("", h.Instance.Create)
		instances.GET("/:id", h.Instance.Get)
		instances.PUT("/:id", h.Instance.Update)
		instances.DELETE("/:id", h.Instance.Delete)
	}
	api.GET("/damage-reports", h.Instance.ListDamageReports)

	checkouts := api.Group("/checkouts")
	{
		checkouts.GET("", h.Checkout.List)
		checkouts.POST("", h.Checkout.Create)
		checkouts.GET("/:id", h.Checkout.Get)
		checkouts.POST("/:id/return", h.Checkout.Return)
	}

	ref := h.Reference
	suppliers := api.Group("/suppliers")
	{
		suppliers.GET("", ref.ListSuppliers)
		suppliers.POST("", ref.CreateSupplier)
		suppliers.GET("/:id", ref.GetSupplier)
		suppliers.PUT("/:id", ref.UpdateSupplier)
		suppliers.DELETE("/:id", ref.DeleteSupplier)
	}
	employees := api.Group("/employees")
	{
		employees.GET("", ref.ListEmployees)
		employees.POST("", ref.CreateEmployee)
		employees.GET("/:id", ref.GetEmployee)
		employees.PUT("/:id", ref.UpdateEmployee)
		employees.DELETE("/:id", ref.DeleteEmployee)
	}
	machines := api.Group("/machines")
	{
		machines.GET("", ref.ListMachines)
		machines.POST("", ref.CreateMachine)
		machines.GET("/:id", ref.GetMachine)
		machines.PUT("/:id", ref.UpdateMachine)
		machines.DELETE("/:id", ref.DeleteMachine)
	}
	categories := api.Group("/categories")
	{
		categories.GET("", ref.ListCategories)
		categories.POST("", ref.CreateCategory)
		categories.GET("/:id", ref.GetCategory)
		categories.PUT("/:id", ref.UpdateCategory)
		categories.DELETE("/:id", ref.DeleteCategory)
	}
	subcategories := api.Group("/subcategories")
	{
		subcategories.GET("", ref.ListSubcategories)
		subcategories.POST("", ref.CreateSubcategory)
		subcategories.GET("/:id", ref.GetSubcategory)
		subcategories.PUT("/:id", ref.UpdateSubcategory)
		subcategories.DELETE("/:id", ref.DeleteSubcategory)
	}
	locations := api.Group("/locations")
	{
		locations.GET("", ref.ListLocations)
		locations.POST("", ref.CreateLocation)
		locations.POST("/bulk", ref.CreateLocationsBulk)
		locations.DELETE("/:id", ref.DeleteLocation)
	}

	invoices := api.Group("/invoices")
	{
		invoices.GET("", h.Invoice.List)
		invoices.POST("", h.Invoice.Create)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.POST("/:id/settle", h.Invoice.Settle)
		invoices.POST("/:id/file", h.Invoice.UploadFile)
		invoices.GET("/:id/file", h.Invoice.DownloadFile)
	}

	purchasing := middleware.RequireRole(PurchasingRole)

	orders := api.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.GET("/:id", h.Order.Get)
		orders.GET("/:id/export", h.Order.Export)
		orders.POST("/:id/verify", purchasing, h.Order.Verify)
		orders.POST("/:id/send", purchasing, h.Order.Send)
		orders.POST("/:id/fulfillments", h.Order.RecordFulfillment)
	}

	suggestions := api.Group("/suggestions")
	{
		suggestions.GET("", h.Replenishment.List)
		suggestions.POST("", purchasing, h.Replenishment.Add)
		suggestions.POST("/generate", purchasing, h.Replenishment.Generate)
		suggestions.POST("/finalize", purchasing, h.Replenishment.Finalize)
		suggestions.PUT("/:id", purchasing, h.Replenishment.Update)
		suggestions.DELETE("/:id", purchasing, h.Replenishment.Remove)
	}
}
