package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderNumberLockKey serializes order numbering across sessions.
const orderNumberLockKey = 7_311_402

// OrderRepository stores purchase orders and their positions.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll lists orders newest first. filters: status, supplier_id,
// tool_type_id (orders containing a position for it), search (number).
func (r *OrderRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Order, int64, error) {
	var items []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if supplierID := filters["supplier_id"]; supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}
	if toolTypeID := filters["tool_type_id"]; toolTypeID != "" {
		sub := r.db.Model(&entity.OrderPosition{}).Select("order_id").Where("tool_type_id = ?", toolTypeID)
		query = query.Where("id IN (?)", sub)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("number ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.
		Preload("Supplier").
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC"), page, pageSize).
		Find(&items).Error
	return items, total, err
}

// FindByID loads the order with supplier, positions and their tool types.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Positions.ToolType").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// FindForUpdate locks the order row and loads its positions.
func (r *OrderRepository) FindForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("sort_order ASC").
		Find(&o.Positions).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order together with its positions.
func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.db.WithContext(ctx).Omit("Supplier").Create(o).Error
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", id).
		Update("status", status).Error
}

// MarkSent moves the order to SENT and stamps sentAt.
func (r *OrderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  entity.OrderStatusSent,
			"sent_at": sentAt,
		}).Error
}

// UpdatePositionDelivery writes delivered quantity and the realized flag.
func (r *OrderRepository) UpdatePositionDelivery(ctx context.Context, p *entity.OrderPosition) error {
	return r.db.WithContext(ctx).Model(&entity.OrderPosition{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"delivered_qty":  p.DeliveredQty,
			"fully_realized": p.FullyRealized,
		}).Error
}

// LockNumbering takes a transaction-scoped advisory lock so that two
// sessions cannot hand out the same order number.
func (r *OrderRepository) LockNumbering(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", orderNumberLockKey).Error
}

// NumbersWithPrefix returns existing order numbers starting with prefix.
func (r *OrderRepository) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("number LIKE ?", prefix+"%").
		Pluck("number", &numbers).Error
	return numbers, err
}

// LastUnitPrice returns the price of the newest priced position for the tool
// type on an order to supplierID.
func (r *OrderRepository) LastUnitPrice(ctx context.Context, toolTypeID, supplierID string) (decimal.NullDecimal, error) {
	var pos entity.OrderPosition
	err := r.db.WithContext(ctx).
		Model(&entity.OrderPosition{}).
		Select("tool_order_positions.*").
		Joins("JOIN tool_orders o ON o.id = tool_order_positions.order_id").
		Where("tool_order_positions.tool_type_id = ? AND o.supplier_id = ?", toolTypeID, supplierID).
		Where("tool_order_positions.unit_price IS NOT NULL").
		Order("o.created_at DESC").
		Limit(1).
		Find(&pos).Error
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return pos.UnitPrice, nil
}

// FulfillmentRepository stores receiving events.
type FulfillmentRepository struct {
	db *gorm.DB
}

func NewFulfillmentRepository(db *gorm.DB) *FulfillmentRepository {
	return &FulfillmentRepository{db: db}
}

// Create inserts the fulfillment and its positions.
func (r *FulfillmentRepository) Create(ctx context.Context, f *entity.Fulfillment) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// FindByOrder lists the receiving events of an order, oldest first.
func (r *FulfillmentRepository) FindByOrder(ctx context.Context, orderID string) ([]entity.Fulfillment, error) {
	var items []entity.Fulfillment
	err := r.db.WithContext(ctx).
		Preload("Positions").
		Where("order_id = ?", orderID).
		Order("received_at ASC").
		Find(&items).Error
	return items, err
}
