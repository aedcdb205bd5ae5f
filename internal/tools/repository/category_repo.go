package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
)

// CategoryRepository stores categories and their subcategories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindAll lists categories with subcategories preloaded.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]entity.Category, error) {
	var items []entity.Category
	err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	var c entity.Category
	err := r.db.WithContext(ctx).Preload("Subcategories").Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *entity.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) Update(ctx context.Context, c *entity.Category) error {
	return r.db.WithContext(ctx).Omit("Subcategories").Save(c).Error
}

// Delete removes the category together with its subcategories.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&entity.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		subIDs := tx.Model(&entity.Subcategory{}).Select("id").Where("category_id = ?", id)
		if err := tx.Model(&entity.ToolType{}).Where("subcategory_id IN (?)", subIDs).
			Update("subcategory_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("category_id = ?", id).Delete(&entity.Subcategory{}).Error
	})
}

func (r *CategoryRepository) FindSubcategory(ctx context.Context, id string) (*entity.Subcategory, error) {
	var s entity.Subcategory
	err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *CategoryRepository) ListSubcategories(ctx context.Context, categoryID string) ([]entity.Subcategory, error) {
	var items []entity.Subcategory
	query := r.db.WithContext(ctx).Preload("Category")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *CategoryRepository) CreateSubcategory(ctx context.Context, s *entity.Subcategory) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *CategoryRepository) UpdateSubcategory(ctx context.Context, s *entity.Subcategory) error {
	return r.db.WithContext(ctx).Omit("Category").Save(s).Error
}

// DeleteSubcategory detaches tool types before removing the subcategory.
func (r *CategoryRepository) DeleteSubcategory(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.ToolType{}).Where("subcategory_id = ?", id).
			Update("subcategory_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&entity.Subcategory{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
