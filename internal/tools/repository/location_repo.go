package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRepository stores shelf slots.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// FindAll lists locations, optionally for a single cabinet.
func (r *LocationRepository) FindAll(ctx context.Context, cabinet string) ([]entity.Location, error) {
	var items []entity.Location
	query := r.db.WithContext(ctx).Model(&entity.Location{})
	if cabinet != "" {
		query = query.Where("cabinet = ?", cabinet)
	}
	err := query.Order("cabinet ASC, col ASC, shelf ASC").Find(&items).Error
	return items, err
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*entity.Location, error) {
	var l entity.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *LocationRepository) Create(ctx context.Context, l *entity.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// locationBatchSize keeps one INSERT well under the 65535 bind parameters
// PostgreSQL allows.
const locationBatchSize = 1000

// CreateIgnoringDuplicates inserts locations, silently skipping slots that
// already exist, and returns how many rows were actually inserted.
func (r *LocationRepository) CreateIgnoringDuplicates(ctx context.Context, locations []entity.Location) (int64, error) {
	if len(locations) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cabinet"}, {Name: "col"}, {Name: "shelf"}},
			DoNothing: true,
		}).
		CreateInBatches(&locations, locationBatchSize)
	return res.RowsAffected, res.Error
}

// Delete removes a location and clears references from instances and tool types.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&entity.Location{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&entity.ToolInstance{}).Where("location_id = ?", id).
			Update("location_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&entity.ToolType{}).Where("default_location_id = ?", id).
			Update("default_location_id", nil).Error
	})
}
