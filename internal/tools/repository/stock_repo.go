package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
)

// Each count is its own aggregate so none is derived from another.
const stockSelect = `
i.tool_type_id AS tool_type_id,
COALESCE(SUM(i.qty_per_unit) FILTER (WHERE i.state = @new), 0) AS new_count,
COALESCE(SUM(i.qty_per_unit) FILTER (WHERE i.state = @used AND NOT EXISTS (
	SELECT 1 FROM tool_checkout_records c WHERE c.instance_id = i.id AND c.returned_at IS NULL)), 0) AS available_used_count,
COALESCE(SUM(i.qty_per_unit) FILTER (WHERE EXISTS (
	SELECT 1 FROM tool_checkout_records c WHERE c.instance_id = i.id AND c.returned_at IS NULL)), 0) AS in_use_count,
COALESCE(SUM(i.qty_per_unit) FILTER (WHERE i.state NOT IN @damaged), 0) AS total_count`

// StockRepository computes stock counts straight from the ledger.
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tool_instances AS i").
		Select(stockSelect, map[string]interface{}{
			"new":     entity.StateNew,
			"used":    entity.StateUsed,
			"damaged": entity.DamagedStates,
		}).
		Group("i.tool_type_id")
}

// ForToolType returns the counts of one tool type; zero counts when it has
// no instances.
func (r *StockRepository) ForToolType(ctx context.Context, toolTypeID string) (*entity.StockSummary, error) {
	var rows []entity.StockSummary
	if err := r.query(ctx).Where("i.tool_type_id = ?", toolTypeID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &entity.StockSummary{ToolTypeID: toolTypeID}, nil
	}
	return &rows[0], nil
}

// All returns counts keyed by tool type id for every type that has instances.
func (r *StockRepository) All(ctx context.Context) (map[string]entity.StockSummary, error) {
	var rows []entity.StockSummary
	if err := r.query(ctx).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]entity.StockSummary, len(rows))
	for _, row := range rows {
		out[row.ToolTypeID] = row
	}
	return out, nil
}
