package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. PARTIALLY_RECEIVED and COMPLETED are only set by receiving.
const (
	OrderStatusDraft             = "DRAFT"
	OrderStatusVerified          = "VERIFIED"
	OrderStatusSent              = "SENT"
	OrderStatusPartiallyReceived = "PARTIALLY_RECEIVED"
	OrderStatusCompleted         = "COMPLETED"
)

// Order is a purchase order sent to one supplier.
type Order struct {
	ID         string     `json:"id" gorm:"primaryKey;size:32"`
	Number     string     `json:"number" gorm:"size:50;not null;uniqueIndex"`
	SupplierID string     `json:"supplier_id" gorm:"size:32;not null;index"`
	Status     string     `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	SentAt     *time.Time `json:"sent_at"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Supplier  *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Positions []OrderPosition `json:"positions,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "tool_orders"
}

// TotalValue sums requested quantity times unit price over priced positions.
func (o *Order) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Positions {
		total = total.Add(p.LineValue())
	}
	return total
}

// IsFullyRealized reports whether every position has been delivered in full.
func (o *Order) IsFullyRealized() bool {
	if len(o.Positions) == 0 {
		return false
	}
	for _, p := range o.Positions {
		if !p.FullyRealized {
			return false
		}
	}
	return true
}

// OrderPosition is one ordered tool type. Unit and QtyPerUnit snapshot the
// tool type's packaging when the order was created.
type OrderPosition struct {
	ID            string              `json:"id" gorm:"primaryKey;size:32"`
	OrderID       string              `json:"order_id" gorm:"size:32;not null;index"`
	ToolTypeID    string              `json:"tool_type_id" gorm:"size:32;not null;index"`
	RequestedQty  int                 `json:"requested_qty" gorm:"not null"`
	Unit          string              `json:"unit" gorm:"size:10;not null;default:PIECE"`
	QtyPerUnit    int                 `json:"qty_per_unit" gorm:"not null;default:1"`
	UnitPrice     decimal.NullDecimal `json:"unit_price" gorm:"type:decimal(10,2)"`
	DeliveredQty  int                 `json:"delivered_qty" gorm:"not null;default:0"`
	FullyRealized bool                `json:"fully_realized" gorm:"not null;default:false"`
	SortOrder     int                 `json:"sort_order" gorm:"default:0"`

	ToolType *ToolType `json:"tool_type,omitempty" gorm:"foreignKey:ToolTypeID"`
}

func (OrderPosition) TableName() string {
	return "tool_order_positions"
}

// LineValue is RequestedQty * UnitPrice, zero when unpriced.
func (p *OrderPosition) LineValue() decimal.Decimal {
	if !p.UnitPrice.Valid {
		return decimal.Zero
	}
	return p.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(p.RequestedQty)))
}

// Remaining is the quantity still expected from the supplier.
func (p *OrderPosition) Remaining() int {
	return p.RequestedQty - p.DeliveredQty
}

// Fulfillment is one receiving event against an order.
type Fulfillment struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	OrderID           string    `json:"order_id" gorm:"size:32;not null;index"`
	ReceivedAt        time.Time `json:"received_at" gorm:"not null"`
	DefaultLocationID *string   `json:"default_location_id" gorm:"size:32"`
	Notes             string    `json:"notes" gorm:"type:text"`
	ReceivedBy        string    `json:"received_by" gorm:"size:64"`

	Positions []FulfillmentPosition `json:"positions,omitempty" gorm:"foreignKey:FulfillmentID"`
}

func (Fulfillment) TableName() string {
	return "tool_fulfillments"
}

// FulfillmentPosition records what arrived for one order position and where
// it was put.
type FulfillmentPosition struct {
	ID              string  `json:"id" gorm:"primaryKey;size:32"`
	FulfillmentID   string  `json:"fulfillment_id" gorm:"size:32;not null;index"`
	OrderPositionID string  `json:"order_position_id" gorm:"size:32;not null;index"`
	ReceivedQty     int     `json:"received_qty" gorm:"not null"`
	LocationID      *string `json:"location_id" gorm:"size:32"`
	InstanceID      string  `json:"instance_id" gorm:"size:32"`
}

func (FulfillmentPosition) TableName() string {
	return "tool_fulfillment_positions"
}

// ReplenishmentSuggestion is a pending line for the next purchase order.
type ReplenishmentSuggestion struct {
	ID            string              `json:"id" gorm:"primaryKey;size:32"`
	ToolTypeID    string              `json:"tool_type_id" gorm:"size:32;not null;uniqueIndex"`
	SupplierID    *string             `json:"supplier_id" gorm:"size:32"`
	CatalogNumber string              `json:"catalog_number" gorm:"size:100"`
	Quantity      int                 `json:"quantity" gorm:"not null"`
	UnitPrice     decimal.NullDecimal `json:"unit_price" gorm:"type:decimal(10,2)"`
	CreatedAt     time.Time           `json:"created_at"`

	ToolType *ToolType `json:"tool_type,omitempty" gorm:"foreignKey:ToolTypeID"`
	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (ReplenishmentSuggestion) TableName() string {
	return "tool_replenishment_suggestions"
}
