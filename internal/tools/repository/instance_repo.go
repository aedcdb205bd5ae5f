package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstanceRepository stores physical tool instances.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// FindAll lists instances. filters: tool_type_id, state, location_id, order_id.
func (r *InstanceRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ToolInstance, int64, error) {
	var items []entity.ToolInstance
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ToolInstance{})
	for _, key := range []string{"tool_type_id", "state", "location_id", "order_id"} {
		if v := filters[key]; v != "" {
			query = query.Where(key+" = ?", v)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.
		Preload("ToolType").
		Preload("Location").
		Preload("Invoice").
		Order("purchased_at DESC NULLS LAST"), page, pageSize).
		Find(&items).Error
	return items, total, err
}

func (r *InstanceRepository) FindByID(ctx context.Context, id string) (*entity.ToolInstance, error) {
	var inst entity.ToolInstance
	err := r.db.WithContext(ctx).
		Preload("ToolType").
		Preload("Location").
		Preload("Invoice").
		Where("id = ?", id).
		First(&inst).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

// FindForUpdate loads the instance with SELECT ... FOR UPDATE. Must run
// inside a transaction; the lock is held until commit or rollback.
func (r *InstanceRepository) FindForUpdate(ctx context.Context, id string) (*entity.ToolInstance, error) {
	var inst entity.ToolInstance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&inst).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

func (r *InstanceRepository) Create(ctx context.Context, inst *entity.ToolInstance) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(inst).Error
}

// UpdateState changes only the state column.
func (r *InstanceRepository) UpdateState(ctx context.Context, id, state string) error {
	return r.db.WithContext(ctx).Model(&entity.ToolInstance{}).Where("id = ?", id).
		Update("state", state).Error
}

// UpdatePlacement changes location and invoice; state and quantity stay put.
func (r *InstanceRepository) UpdatePlacement(ctx context.Context, id string, locationID, invoiceID *string) error {
	return r.db.WithContext(ctx).Model(&entity.ToolInstance{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"location_id": locationID,
			"invoice_id":  invoiceID,
		}).Error
}

func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.ToolInstance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
