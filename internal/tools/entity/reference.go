package entity

import "time"

// Supplier sells tools to the shop.
type Supplier struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	TaxID     string    `json:"tax_id" gorm:"size:20"`
	Address   string    `json:"address" gorm:"type:text"`
	Phone     string    `json:"phone" gorm:"size:20"`
	Email     string    `json:"email" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "tool_suppliers"
}

// Employee is identified on the shop floor by badge card number.
type Employee struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Card      string    `json:"card" gorm:"size:50;not null;uniqueIndex"`
	LastName  string    `json:"last_name" gorm:"size:100;not null"`
	FirstName string    `json:"first_name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Employee) TableName() string {
	return "tool_employees"
}

// FullName renders "Last First (card)".
func (e Employee) FullName() string {
	return e.LastName + " " + e.FirstName + " (" + e.Card + ")"
}

type Machine struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (Machine) TableName() string {
	return "tool_machines"
}

type Category struct {
	ID            string        `json:"id" gorm:"primaryKey;size:32"`
	Name          string        `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Subcategories []Subcategory `json:"subcategories,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string {
	return "tool_categories"
}

type Subcategory struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Name       string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_tool_subcategory_name"`
	CategoryID string    `json:"category_id" gorm:"size:32;not null;uniqueIndex:idx_tool_subcategory_name"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Subcategory) TableName() string {
	return "tool_subcategories"
}

// Location is one shelf slot: cabinet / column / shelf.
type Location struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	Cabinet string `json:"cabinet" gorm:"size:50;not null;uniqueIndex:idx_tool_location_slot"`
	Column  string `json:"column" gorm:"column:col;size:50;not null;uniqueIndex:idx_tool_location_slot"`
	Shelf   string `json:"shelf" gorm:"size:50;not null;uniqueIndex:idx_tool_location_slot"`
}

func (Location) TableName() string {
	return "tool_locations"
}

func (l Location) String() string {
	return l.Cabinet + "/" + l.Column + "/" + l.Shelf
}

// PurchaseInvoice is a supplier invoice. FileKey points into object storage.
type PurchaseInvoice struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Number     string    `json:"number" gorm:"size:100;not null;uniqueIndex"`
	IssuedOn   time.Time `json:"issued_on" gorm:"type:date;not null"`
	SupplierID string    `json:"supplier_id" gorm:"size:32;not null;index"`
	Settled    bool      `json:"settled" gorm:"default:false"`
	FileKey    string    `json:"file_key" gorm:"size:255"`
	FileName   string    `json:"file_name" gorm:"size:255"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (PurchaseInvoice) TableName() string {
	return "tool_purchase_invoices"
}
