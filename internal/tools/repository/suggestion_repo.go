package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SuggestionRepository stores pending replenishment suggestions.
type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func (r *SuggestionRepository) FindAll(ctx context.Context) ([]entity.ReplenishmentSuggestion, error) {
	var items []entity.ReplenishmentSuggestion
	err := r.db.WithContext(ctx).
		Preload("ToolType").
		Preload("Supplier").
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (*entity.ReplenishmentSuggestion, error) {
	var s entity.ReplenishmentSuggestion
	err := r.db.WithContext(ctx).
		Preload("ToolType").
		Preload("Supplier").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ToolTypeIDs returns the tool types that already have a suggestion.
func (r *SuggestionRepository) ToolTypeIDs(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&entity.ReplenishmentSuggestion{}).
		Pluck("tool_type_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CreateIfAbsent inserts the suggestion unless the tool type already has
// one. Returns false when nothing was inserted.
func (r *SuggestionRepository) CreateIfAbsent(ctx context.Context, s *entity.ReplenishmentSuggestion) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tool_type_id"}},
			DoNothing: true,
		}).
		Create(s)
	return res.RowsAffected > 0, res.Error
}

func (r *SuggestionRepository) Update(ctx context.Context, s *entity.ReplenishmentSuggestion) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (r *SuggestionRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.ReplenishmentSuggestion{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDs removes the given suggestions.
func (r *SuggestionRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.ReplenishmentSuggestion{}).Error
}
