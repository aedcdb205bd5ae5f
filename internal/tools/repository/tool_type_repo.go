package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToolTypeRepository stores catalog entries.
type ToolTypeRepository struct {
	db *gorm.DB
}

func NewToolTypeRepository(db *gorm.DB) *ToolTypeRepository {
	return &ToolTypeRepository{db: db}
}

// FindAll lists tool types. filters: subcategory_id, category_id, search.
func (r *ToolTypeRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ToolType, int64, error) {
	var items []entity.ToolType
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ToolType{})
	if subID := filters["subcategory_id"]; subID != "" {
		query = query.Where("subcategory_id = ?", subID)
	}
	if catID := filters["category_id"]; catID != "" {
		sub := r.db.Model(&entity.Subcategory{}).Select("id").Where("category_id = ?", catID)
		query = query.Where("subcategory_id IN (?)", sub)
	}
	if search := filters["search"]; search != "" {
		like := "%" + search + "%"
		query = query.Where("description ILIKE ? OR catalog_number ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.
		Preload("Subcategory.Category").
		Preload("LastSupplier").
		Preload("DefaultLocation").
		Order("description ASC"), page, pageSize).
		Find(&items).Error
	return items, total, err
}

// ListAll returns every tool type without relations.
func (r *ToolTypeRepository) ListAll(ctx context.Context) ([]entity.ToolType, error) {
	var items []entity.ToolType
	err := r.db.WithContext(ctx).Order("description ASC").Find(&items).Error
	return items, err
}

func (r *ToolTypeRepository) FindByID(ctx context.Context, id string) (*entity.ToolType, error) {
	var t entity.ToolType
	err := r.db.WithContext(ctx).
		Preload("Subcategory.Category").
		Preload("LastSupplier").
		Preload("DefaultLocation").
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// FindForUpdate loads the tool type and locks its row until the transaction ends.
func (r *ToolTypeRepository) FindForUpdate(ctx context.Context, id string) (*entity.ToolType, error) {
	var t entity.ToolType
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *ToolTypeRepository) Create(ctx context.Context, t *entity.ToolType) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *ToolTypeRepository) Update(ctx context.Context, t *entity.ToolType) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error
}

// UpdateMaxStock sets the max-stock threshold only.
func (r *ToolTypeRepository) UpdateMaxStock(ctx context.Context, id string, maxStock int) error {
	return r.db.WithContext(ctx).Model(&entity.ToolType{}).Where("id = ?", id).
		Update("max_stock", maxStock).Error
}

// SetLastSupplier records the supplier an order for the tool type went to.
func (r *ToolTypeRepository) SetLastSupplier(ctx context.Context, id, supplierID string) error {
	return r.db.WithContext(ctx).Model(&entity.ToolType{}).Where("id = ?", id).
		Update("last_supplier_id", supplierID).Error
}

func (r *ToolTypeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.ToolType{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountInstances counts instance rows of the tool type.
func (r *ToolTypeRepository) CountInstances(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.ToolInstance{}).Where("tool_type_id = ?", id).Count(&n).Error
	return n, err
}

// CountOrderPositions counts order positions that ordered the tool type.
func (r *ToolTypeRepository) CountOrderPositions(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.OrderPosition{}).Where("tool_type_id = ?", id).Count(&n).Error
	return n, err
}
