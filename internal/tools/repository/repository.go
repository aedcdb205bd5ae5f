package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories groups the toolroom repositories.
type Repositories struct {
	Supplier    *SupplierRepository
	Employee    *EmployeeRepository
	Machine     *MachineRepository
	Category    *CategoryRepository
	Location    *LocationRepository
	Invoice     *InvoiceRepository
	ToolType    *ToolTypeRepository
	Instance    *InstanceRepository
	Checkout    *CheckoutRepository
	Damage      *DamageReportRepository
	Stock       *StockRepository
	Order       *OrderRepository
	Suggestion  *SuggestionRepository
	Fulfillment *FulfillmentRepository
}

// NewRepositories builds every repository on db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Supplier:    NewSupplierRepository(db),
		Employee:    NewEmployeeRepository(db),
		Machine:     NewMachineRepository(db),
		Category:    NewCategoryRepository(db),
		Location:    NewLocationRepository(db),
		Invoice:     NewInvoiceRepository(db),
		ToolType:    NewToolTypeRepository(db),
		Instance:    NewInstanceRepository(db),
		Checkout:    NewCheckoutRepository(db),
		Damage:      NewDamageReportRepository(db),
		Stock:       NewStockRepository(db),
		Order:       NewOrderRepository(db),
		Suggestion:  NewSuggestionRepository(db),
		Fulfillment: NewFulfillmentRepository(db),
	}
}

// WithTx returns a copy of every repository bound to tx.
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// paginate applies page/pageSize when both are positive.
func paginate(q *gorm.DB, page, pageSize int) *gorm.DB {
	if page > 0 && pageSize > 0 {
		q = q.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	return q
}
