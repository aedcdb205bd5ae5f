package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutRepository stores the usage history of instances.
type CheckoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// FindAll lists checkout records, newest first. filters: tool_type_id,
// instance_id, employee_id, open ("true" for records not yet returned).
func (r *CheckoutRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.CheckoutRecord, int64, error) {
	var items []entity.CheckoutRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.CheckoutRecord{})
	if toolTypeID := filters["tool_type_id"]; toolTypeID != "" {
		sub := r.db.Model(&entity.ToolInstance{}).Select("id").Where("tool_type_id = ?", toolTypeID)
		query = query.Where("instance_id IN (?)", sub)
	}
	if instanceID := filters["instance_id"]; instanceID != "" {
		query = query.Where("instance_id = ?", instanceID)
	}
	if employeeID := filters["employee_id"]; employeeID != "" {
		query = query.Where("employee_id = ?", employeeID)
	}
	if filters["open"] == "true" {
		query = query.Where("returned_at IS NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.
		Preload("Instance.ToolType").
		Preload("Instance.Location").
		Preload("Employee").
		Preload("Machine").
		Preload("ReturnedBy").
		Order("issued_at DESC"), page, pageSize).
		Find(&items).Error
	return items, total, err
}

func (r *CheckoutRepository) FindByID(ctx context.Context, id string) (*entity.CheckoutRecord, error) {
	var rec entity.CheckoutRecord
	err := r.db.WithContext(ctx).
		Preload("Instance.ToolType").
		Preload("Employee").
		Preload("Machine").
		Preload("ReturnedBy").
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// FindForUpdate locks the checkout record row.
func (r *CheckoutRepository) FindForUpdate(ctx context.Context, id string) (*entity.CheckoutRecord, error) {
	var rec entity.CheckoutRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// HasOpen reports whether the instance has a checkout without a return time.
func (r *CheckoutRepository) HasOpen(ctx context.Context, instanceID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.CheckoutRecord{}).
		Where("instance_id = ? AND returned_at IS NULL", instanceID).
		Count(&n).Error
	return n > 0, err
}

// LatestForInstance returns the most recently issued record, or ErrNotFound.
func (r *CheckoutRepository) LatestForInstance(ctx context.Context, instanceID string) (*entity.CheckoutRecord, error) {
	var rec entity.CheckoutRecord
	err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("issued_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *CheckoutRepository) Create(ctx context.Context, rec *entity.CheckoutRecord) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error
}

// Close stamps the return time. Only an open record is updated.
func (r *CheckoutRepository) Close(ctx context.Context, id string, returnedAt time.Time, returnedByID *string, notes string) error {
	updates := map[string]interface{}{
		"returned_at":    returnedAt,
		"returned_by_id": returnedByID,
	}
	if notes != "" {
		updates["notes"] = notes
	}
	res := r.db.WithContext(ctx).Model(&entity.CheckoutRecord{}).
		Where("id = ? AND returned_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DamageReportRepository stores damage reports.
type DamageReportRepository struct {
	db *gorm.DB
}

func NewDamageReportRepository(db *gorm.DB) *DamageReportRepository {
	return &DamageReportRepository{db: db}
}

func (r *DamageReportRepository) Create(ctx context.Context, rep *entity.DamageReport) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rep).Error
}

// FindAll lists reports newest first, optionally for one instance.
func (r *DamageReportRepository) FindAll(ctx context.Context, page, pageSize int, instanceID string) ([]entity.DamageReport, int64, error) {
	var items []entity.DamageReport
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.DamageReport{})
	if instanceID != "" {
		query = query.Where("instance_id = ?", instanceID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginate(query.Preload("Employee").Order("reported_at DESC"), page, pageSize).Find(&items).Error
	return items, total, err
}
