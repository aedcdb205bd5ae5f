package entity

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a 32 character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// AutoMigrate creates or updates every toolroom table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// reference data
		&Supplier{},
		&Employee{},
		&Machine{},
		&Category{},
		&Subcategory{},
		&Location{},
		&PurchaseInvoice{},

		// catalog and ledger
		&ToolType{},
		&ToolInstance{},
		&CheckoutRecord{},
		&DamageReport{},

		// purchasing
		&Order{},
		&OrderPosition{},
		&Fulfillment{},
		&FulfillmentPosition{},
		&ReplenishmentSuggestion{},
	)
}
