package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"go.uber.org/zap"
)

// ReferenceService manages suppliers, employees, machines, categories and
// storage locations.
type ReferenceService struct {
	repos *repository.Repositories
	log   *zap.Logger
}

func NewReferenceService(repos *repository.Repositories, log *zap.Logger) *ReferenceService {
	return &ReferenceService{repos: repos, log: log}
}

// === Suppliers ===

type SupplierRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (s *ReferenceService) ListSuppliers(ctx context.Context, search string) ([]entity.Supplier, error) {
	return s.repos.Supplier.FindAll(ctx, search)
}

func (s *ReferenceService) GetSupplier(ctx context.Context, id string) (*entity.Supplier, error) {
	sup, err := s.repos.Supplier.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "supplier", id)
	}
	return sup, nil
}

func (s *ReferenceService) CreateSupplier(ctx context.Context, req *SupplierRequest) (*entity.Supplier, error) {
	sup := &entity.Supplier{ID: entity.NewID()}
	applySupplier(sup, req)
	if sup.Code == "" || sup.Name == "" {
		return nil, validationf("supplier code and name are required")
	}
	if err := s.repos.Supplier.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return sup, nil
}

func (s *ReferenceService) UpdateSupplier(ctx context.Context, id string, req *SupplierRequest) (*entity.Supplier, error) {
	sup, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	applySupplier(sup, req)
	if err := s.repos.Supplier.Update(ctx, sup); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return sup, nil
}

// DeleteSupplier refuses suppliers that orders or invoices point at.
func (s *ReferenceService) DeleteSupplier(ctx context.Context, id string) error {
	used, err := s.repos.Supplier.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: supplier %s has orders or invoices", ErrInvalidState, id)
	}
	return missing(s.repos.Supplier.Delete(ctx, id), "supplier", id)
}

func applySupplier(sup *entity.Supplier, req *SupplierRequest) {
	sup.Code = strings.TrimSpace(req.Code)
	sup.Name = strings.TrimSpace(req.Name)
	sup.TaxID = req.TaxID
	sup.Address = req.Address
	sup.Phone = req.Phone
	sup.Email = strings.TrimSpace(req.Email)
}

// === Employees ===

type EmployeeRequest struct {
	Card      string `json:"card" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
}

func (s *ReferenceService) ListEmployees(ctx context.Context, search string) ([]entity.Employee, error) {
	return s.repos.Employee.FindAll(ctx, search)
}

func (s *ReferenceService) GetEmployee(ctx context.Context, id string) (*entity.Employee, error) {
	e, err := s.repos.Employee.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "employee", id)
	}
	return e, nil
}

func (s *ReferenceService) CreateEmployee(ctx context.Context, req *EmployeeRequest) (*entity.Employee, error) {
	e := &entity.Employee{
		ID:        entity.NewID(),
		Card:      strings.TrimSpace(req.Card),
		LastName:  strings.TrimSpace(req.LastName),
		FirstName: strings.TrimSpace(req.FirstName),
	}
	if e.Card == "" {
		return nil, validationf("employee card is required")
	}
	if err := s.repos.Employee.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return e, nil
}

func (s *ReferenceService) UpdateEmployee(ctx context.Context, id string, req *EmployeeRequest) (*entity.Employee, error) {
	e, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Card = strings.TrimSpace(req.Card)
	e.LastName = strings.TrimSpace(req.LastName)
	e.FirstName = strings.TrimSpace(req.FirstName)
	if err := s.repos.Employee.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return e, nil
}

// DeleteEmployee refuses employees who still hold an instance. Closed
// checkout history keeps the employee id.
func (s *ReferenceService) DeleteEmployee(ctx context.Context, id string) error {
	holding, err := s.repos.Employee.HasOpenCheckouts(ctx, id)
	if err != nil {
		return err
	}
	if holding {
		return fmt.Errorf("%w: employee %s has tools checked out", ErrInvalidState, id)
	}
	return missing(s.repos.Employee.Delete(ctx, id), "employee", id)
}

// === Machines ===

type MachineRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *ReferenceService) ListMachines(ctx context.Context) ([]entity.Machine, error) {
	return s.repos.Machine.FindAll(ctx)
}

func (s *ReferenceService) GetMachine(ctx context.Context, id string) (*entity.Machine, error) {
	m, err := s.repos.Machine.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "machine", id)
	}
	return m, nil
}

func (s *ReferenceService) CreateMachine(ctx context.Context, req *MachineRequest) (*entity.Machine, error) {
	m := &entity.Machine{ID: entity.NewID(), Name: strings.TrimSpace(req.Name)}
	if m.Name == "" {
		return nil, validationf("machine name is required")
	}
	if err := s.repos.Machine.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}
	return m, nil
}

func (s *ReferenceService) UpdateMachine(ctx context.Context, id string, req *MachineRequest) (*entity.Machine, error) {
	m, err := s.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Name = strings.TrimSpace(req.Name)
	if err := s.repos.Machine.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update machine: %w", err)
	}
	return m, nil
}

func (s *ReferenceService) DeleteMachine(ctx context.Context, id string) error {
	return missing(s.repos.Machine.Delete(ctx, id), "machine", id)
}

// === Categories ===

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type SubcategoryRequest struct {
	Name       string `json:"name" binding:"required"`
	CategoryID string `json:"category_id" binding:"required"`
}

func (s *ReferenceService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return s.repos.Category.FindAll(ctx)
}

func (s *ReferenceService) GetCategory(ctx context.Context, id string) (*entity.Category, error) {
	c, err := s.repos.Category.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "category", id)
	}
	return c, nil
}

func (s *ReferenceService) CreateCategory(ctx context.Context, req *CategoryRequest) (*entity.Category, error) {
	c := &entity.Category{ID: entity.NewID(), Name: strings.TrimSpace(req.Name)}
	if c.Name == "" {
		return nil, validationf("category name is required")
	}
	if err := s.repos.Category.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *ReferenceService) UpdateCategory(ctx context.Context, id string, req *CategoryRequest) (*entity.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(req.Name)
	if err := s.repos.Category.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes the category and its subcategories; tool types in
// them become uncategorised.
func (s *ReferenceService) DeleteCategory(ctx context.Context, id string) error {
	return missing(s.repos.Category.Delete(ctx, id), "category", id)
}

func (s *ReferenceService) ListSubcategories(ctx context.Context, categoryID string) ([]entity.Subcategory, error) {
	return s.repos.Category.ListSubcategories(ctx, categoryID)
}

func (s *ReferenceService) GetSubcategory(ctx context.Context, id string) (*entity.Subcategory, error) {
	sub, err := s.repos.Category.FindSubcategory(ctx, id)
	if err != nil {
		return nil, missing(err, "subcategory", id)
	}
	return sub, nil
}

func (s *ReferenceService) CreateSubcategory(ctx context.Context, req *SubcategoryRequest) (*entity.Subcategory, error) {
	if _, err := s.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	sub := &entity.Subcategory{
		ID:         entity.NewID(),
		Name:       strings.TrimSpace(req.Name),
		CategoryID: req.CategoryID,
	}
	if sub.Name == "" {
		return nil, validationf("subcategory name is required")
	}
	if err := s.repos.Category.CreateSubcategory(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subcategory: %w", err)
	}
	return s.GetSubcategory(ctx, sub.ID)
}

func (s *ReferenceService) UpdateSubcategory(ctx context.Context, id string, req *SubcategoryRequest) (*entity.Subcategory, error) {
	sub, err := s.GetSubcategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != sub.CategoryID {
		if _, err := s.GetCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}
	sub.Name = strings.TrimSpace(req.Name)
	sub.CategoryID = req.CategoryID
	sub.Category = nil
	if err := s.repos.Category.UpdateSubcategory(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subcategory: %w", err)
	}
	return s.GetSubcategory(ctx, id)
}

func (s *ReferenceService) DeleteSubcategory(ctx context.Context, id string) error {
	return missing(s.repos.Category.DeleteSubcategory(ctx, id), "subcategory", id)
}

// === Locations ===

type LocationRequest struct {
	Cabinet string `json:"cabinet" binding:"required"`
	Column  string `json:"column" binding:"required"`
	Shelf   string `json:"shelf" binding:"required"`
}

type BulkLocationsRequest struct {
	Cabinet string `json:"cabinet"`
	Columns int    `json:"columns"`
	Shelves int    `json:"shelves"`
}

func (s *ReferenceService) ListLocations(ctx context.Context, cabinet string) ([]entity.Location, error) {
	return s.repos.Location.FindAll(ctx, cabinet)
}

func (s *ReferenceService) CreateLocation(ctx context.Context, req *LocationRequest) (*entity.Location, error) {
	l := &entity.Location{
		ID:      entity.NewID(),
		Cabinet: strings.TrimSpace(req.Cabinet),
		Column:  strings.TrimSpace(req.Column),
		Shelf:   strings.TrimSpace(req.Shelf),
	}
	if l.Cabinet == "" || l.Column == "" || l.Shelf == "" {
		return nil, validationf("cabinet, column and shelf are required")
	}
	if err := s.repos.Location.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return l, nil
}

// Largest cabinet accepted by LocationGrid, per dimension.
const (
	maxGridColumns = 100
	maxGridShelves = 100
)

// LocationGrid lists the cabinet/column/shelf slots for columns 1..columns
// and shelves 1..shelves.
func LocationGrid(cabinet string, columns, shelves int) ([]entity.Location, error) {
	cabinet = strings.TrimSpace(cabinet)
	if cabinet == "" {
		return nil, validationf("cabinet is required")
	}
	if columns < 1 || shelves < 1 {
		return nil, validationf("columns and shelves must be at least 1")
	}
	if columns > maxGridColumns || shelves > maxGridShelves {
		return nil, validationf("grid is limited to %d columns and %d shelves", maxGridColumns, maxGridShelves)
	}
	grid := make([]entity.Location, 0, columns*shelves)
	for col := 1; col <= columns; col++ {
		for shelf := 1; shelf <= shelves; shelf++ {
			grid = append(grid, entity.Location{
				ID:      entity.NewID(),
				Cabinet: cabinet,
				Column:  strconv.Itoa(col),
				Shelf:   strconv.Itoa(shelf),
			})
		}
	}
	return grid, nil
}

// CreateLocationsBulk creates a whole cabinet grid. Slots that already exist
// are skipped; the count of new rows is returned.
func (s *ReferenceService) CreateLocationsBulk(ctx context.Context, cabinet string, columns, shelves int) (int, error) {
	grid, err := LocationGrid(cabinet, columns, shelves)
	if err != nil {
		return 0, err
	}
	created, err := s.repos.Location.CreateIgnoringDuplicates(ctx, grid)
	if err != nil {
		return 0, fmt.Errorf("create locations: %w", err)
	}
	s.log.Info("locations created",
		zap.String("cabinet", grid[0].Cabinet),
		zap.Int("requested", len(grid)),
		zap.Int64("created", created),
	)
	return int(created), nil
}

// DeleteLocation removes a slot; instances and tool types stored there lose
// their location.
func (s *ReferenceService) DeleteLocation(ctx context.Context, id string) error {
	return missing(s.repos.Location.Delete(ctx, id), "location", id)
}
