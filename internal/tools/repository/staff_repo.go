package repository

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"gorm.io/gorm"
)

// EmployeeRepository stores shop-floor employees.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) FindAll(ctx context.Context, search string) ([]entity.Employee, error) {
	var items []entity.Employee
	query := r.db.WithContext(ctx).Model(&entity.Employee{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("card ILIKE ? OR last_name ILIKE ? OR first_name ILIKE ?", like, like, like)
	}
	err := query.Order("last_name ASC, first_name ASC").Find(&items).Error
	return items, err
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*entity.Employee, error) {
	var e entity.Employee
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *entity.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EmployeeRepository) Update(ctx context.Context, e *entity.Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Employee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MachineRepository stores machines tools are issued against.
type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) FindAll(ctx context.Context) ([]entity.Machine, error) {
	var items []entity.Machine
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *MachineRepository) FindByID(ctx context.Context, id string) (*entity.Machine, error) {
	var m entity.Machine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MachineRepository) Create(ctx context.Context, m *entity.Machine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MachineRepository) Update(ctx context.Context, m *entity.Machine) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MachineRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Machine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasOpenCheckouts reports whether the employee still holds an instance.
func (r *EmployeeRepository) HasOpenCheckouts(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.CheckoutRecord{}).
		Where("employee_id = ? AND returned_at IS NULL", id).
		Count(&n).Error
	return n > 0, err
}
