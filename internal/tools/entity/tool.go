package entity

import "time"

// Packaging units. Instances reuse the same values as their unit of measure.
const (
	PackagingPiece = "PIECE"
	PackagingSet   = "SET"
)

// Instance states
const (
	StateNew             = "NEW"
	StateUsed            = "USED"
	StateDamaged         = "DAMAGED"
	StateDamagedForRegen = "DAMAGED_FOR_REGEN"
)

// CheckoutStates may be issued to an employee.
var CheckoutStates = []string{StateNew, StateUsed}

// ReturnStates are accepted when closing a checkout.
var ReturnStates = []string{StateUsed, StateDamaged, StateDamagedForRegen}

// DamagedStates are excluded from stock totals.
var DamagedStates = []string{StateDamaged, StateDamagedForRegen}

// IsDamaged reports whether state is one of DamagedStates.
func IsDamaged(state string) bool {
	return state == StateDamaged || state == StateDamagedForRegen
}

// ToolType is a catalog entry.
type ToolType struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	SubcategoryID     *string   `json:"subcategory_id" gorm:"size:32;index"`
	Description       string    `json:"description" gorm:"type:text;not null"`
	CatalogNumber     string    `json:"catalog_number" gorm:"size:100"`
	Packaging         string    `json:"packaging" gorm:"size:10;not null;default:PIECE"`
	QtyPerPackage     int       `json:"qty_per_package" gorm:"not null;default:1"`
	MinStock          int       `json:"min_stock" gorm:"not null"`
	MaxStock          int       `json:"max_stock" gorm:"not null"`
	LastSupplierID    *string   `json:"last_supplier_id" gorm:"size:32;index"`
	DefaultLocationID *string   `json:"default_location_id" gorm:"size:32"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Subcategory     *Subcategory `json:"subcategory,omitempty" gorm:"foreignKey:SubcategoryID"`
	LastSupplier    *Supplier    `json:"last_supplier,omitempty" gorm:"foreignKey:LastSupplierID"`
	DefaultLocation *Location    `json:"default_location,omitempty" gorm:"foreignKey:DefaultLocationID"`
}

func (ToolType) TableName() string {
	return "tool_types"
}

// ToolInstance is one physical piece or sealed package. Unit and QtyPerUnit
// are copied from the tool type at creation and never change afterwards.
type ToolInstance struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	ToolTypeID  string     `json:"tool_type_id" gorm:"size:32;not null;index"`
	State       string     `json:"state" gorm:"size:30;not null;default:NEW;index"`
	LocationID  *string    `json:"location_id" gorm:"size:32"`
	InvoiceID   *string    `json:"invoice_id" gorm:"size:32;index"`
	OrderID     *string    `json:"order_id" gorm:"size:32;index"`
	Unit        string     `json:"unit" gorm:"size:10;not null;default:PIECE"`
	QtyPerUnit  int        `json:"qty_per_unit" gorm:"not null;default:1"`
	PurchasedAt *time.Time `json:"purchased_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	ToolType *ToolType        `json:"tool_type,omitempty" gorm:"foreignKey:ToolTypeID"`
	Location *Location        `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Invoice  *PurchaseInvoice `json:"invoice,omitempty" gorm:"foreignKey:InvoiceID"`
}

func (ToolInstance) TableName() string {
	return "tool_instances"
}

// CheckoutRecord is one lending of an instance. ReturnedAt is nil while the
// instance is out; at most one such open record exists per instance.
type CheckoutRecord struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	InstanceID   string     `json:"instance_id" gorm:"size:32;not null;index"`
	EmployeeID   *string    `json:"employee_id" gorm:"size:32;index"`
	MachineID    *string    `json:"machine_id" gorm:"size:32"`
	ReturnedByID *string    `json:"returned_by_id" gorm:"size:32"`
	IssuedAt     time.Time  `json:"issued_at" gorm:"not null;index"`
	ReturnedAt   *time.Time `json:"returned_at" gorm:"index"`
	Notes        string     `json:"notes" gorm:"type:text"`

	Instance   *ToolInstance `json:"instance,omitempty" gorm:"foreignKey:InstanceID"`
	Employee   *Employee     `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	Machine    *Machine      `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	ReturnedBy *Employee     `json:"returned_by,omitempty" gorm:"foreignKey:ReturnedByID"`
}

func (CheckoutRecord) TableName() string {
	return "tool_checkout_records"
}

// IsOpen reports whether the instance has not been returned yet.
func (r *CheckoutRecord) IsOpen() bool {
	return r.ReturnedAt == nil
}

// UsageDuration is the time the instance spent out, up to now while open.
func (r *CheckoutRecord) UsageDuration(now time.Time) time.Duration {
	end := now
	if r.ReturnedAt != nil {
		end = *r.ReturnedAt
	}
	if end.Before(r.IssuedAt) {
		return 0
	}
	return end.Sub(r.IssuedAt)
}

// DamageReport archives a damaged instance. InstanceID is kept after the
// instance row is deleted.
type DamageReport struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	InstanceID  *string   `json:"instance_id" gorm:"size:32;index"`
	ReportedAt  time.Time `json:"reported_at" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	EmployeeID  *string   `json:"employee_id" gorm:"size:32"`

	Employee *Employee `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
}

func (DamageReport) TableName() string {
	return "tool_damage_reports"
}
