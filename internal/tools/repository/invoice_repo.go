package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
)

// InvoiceRepository stores purchase invoices.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// FindAll lists invoices, newest first. filters: supplier_id, settled
// ("true"/"false"), tool_type_id (invoices that produced an instance of it).
func (r *InvoiceRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseInvoice, int64, error) {
	var items []entity.PurchaseInvoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseInvoice{})
	if supplierID := filters["supplier_id"]; supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}
	switch filters["settled"] {
	case "true":
		query = query.Where("settled = ?", true)
	case "false":
		query = query.Where("settled = ?", false)
	}
	if toolTypeID := filters["tool_type_id"]; toolTypeID != "" {
		sub := r.db.Model(&entity.ToolInstance{}).Select("invoice_id").Where("tool_type_id = ?", toolTypeID)
		query = query.Where("id IN (?)", sub)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.Preload("Supplier").Order("issued_on DESC"), page, pageSize).Find(&items).Error
	return items, total, err
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	var inv entity.PurchaseInvoice
	err := r.db.WithContext(ctx).Preload("Supplier").Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.PurchaseInvoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *entity.PurchaseInvoice) error {
	return r.db.WithContext(ctx).Omit("Supplier").Save(inv).Error
}
