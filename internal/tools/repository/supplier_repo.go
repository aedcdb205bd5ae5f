package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
)

// SupplierRepository stores suppliers.
type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// FindAll lists suppliers, optionally filtered by code or name.
func (r *SupplierRepository) FindAll(ctx context.Context, search string) ([]entity.Supplier, error) {
	var items []entity.Supplier
	query := r.db.WithContext(ctx).Model(&entity.Supplier{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", like, like)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *SupplierRepository) FindByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SupplierRepository) Create(ctx context.Context, s *entity.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SupplierRepository) Update(ctx context.Context, s *entity.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Supplier{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsReferenced reports whether orders or invoices point at the supplier.
func (r *SupplierRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entity.Order{}).Where("supplier_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&entity.PurchaseInvoice{}).Where("supplier_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
