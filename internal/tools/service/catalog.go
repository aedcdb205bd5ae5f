package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultMinStock = 5
	defaultMaxStock = 20
)

// ValidatePackaging enforces the packaging rule: a SET holds more than one
// piece, a PIECE holds at least one.
func ValidatePackaging(packaging string, qtyPerPackage int) error {
	switch packaging {
	case entity.PackagingPiece:
		if qtyPerPackage < 1 {
			return validationf("per-package quantity must be at least 1")
		}
	case entity.PackagingSet:
		if qtyPerPackage <= 1 {
			return validationf("set packaging requires per-package quantity > 1")
		}
	default:
		return validationf("unknown packaging %q", packaging)
	}
	return nil
}

// CatalogService manages tool types.
type CatalogService struct {
	repos *repository.Repositories
	db    *gorm.DB
	stock *StockService
	log   *zap.Logger
}

func NewCatalogService(repos *repository.Repositories, db *gorm.DB, stock *StockService, log *zap.Logger) *CatalogService {
	return &CatalogService{repos: repos, db: db, stock: stock, log: log}
}

// CreateToolTypeRequest creates a catalog entry. Zero packaging fields fall
// back to a single piece; nil thresholds fall back to 5 / 20.
type CreateToolTypeRequest struct {
	Description       string  `json:"description" binding:"required"`
	CatalogNumber     string  `json:"catalog_number"`
	Packaging         string  `json:"packaging"`
	QtyPerPackage     int     `json:"qty_per_package"`
	MinStock          *int    `json:"min_stock"`
	MaxStock          *int    `json:"max_stock"`
	SubcategoryID     *string `json:"subcategory_id"`
	LastSupplierID    *string `json:"last_supplier_id"`
	DefaultLocationID *string `json:"default_location_id"`
}

// UpdateToolTypeRequest changes only the fields that are set.
type UpdateToolTypeRequest struct {
	Description       *string `json:"description"`
	CatalogNumber     *string `json:"catalog_number"`
	Packaging         *string `json:"packaging"`
	QtyPerPackage     *int    `json:"qty_per_package"`
	MinStock          *int    `json:"min_stock"`
	MaxStock          *int    `json:"max_stock"`
	SubcategoryID     *string `json:"subcategory_id"`
	LastSupplierID    *string `json:"last_supplier_id"`
	DefaultLocationID *string `json:"default_location_id"`
}

// ToolTypeWithStock is a catalog entry together with its live counts.
type ToolTypeWithStock struct {
	entity.ToolType
	Stock entity.StockSummary `json:"stock"`
}

func (s *CatalogService) ListToolTypes(ctx context.Context, page, pageSize int, filters map[string]string) ([]ToolTypeWithStock, int64, error) {
	items, total, err := s.repos.ToolType.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, err
	}
	stock, err := s.stock.ComputeStockAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ToolTypeWithStock, 0, len(items))
	for _, t := range items {
		summary, ok := stock[t.ID]
		if !ok {
			summary = entity.StockSummary{ToolTypeID: t.ID}
		}
		out = append(out, ToolTypeWithStock{ToolType: t, Stock: summary})
	}
	return out, total, nil
}

func (s *CatalogService) GetToolType(ctx context.Context, id string) (*entity.ToolType, error) {
	t, err := s.repos.ToolType.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "tool type", id)
	}
	return t, nil
}

func (s *CatalogService) CreateToolType(ctx context.Context, req *CreateToolTypeRequest) (*entity.ToolType, error) {
	t := &entity.ToolType{
		ID:                entity.NewID(),
		Description:       req.Description,
		CatalogNumber:     req.CatalogNumber,
		Packaging:         req.Packaging,
		QtyPerPackage:     req.QtyPerPackage,
		MinStock:          defaultMinStock,
		MaxStock:          defaultMaxStock,
		SubcategoryID:     req.SubcategoryID,
		LastSupplierID:    req.LastSupplierID,
		DefaultLocationID: req.DefaultLocationID,
	}
	if t.Packaging == "" {
		t.Packaging = entity.PackagingPiece
	}
	if t.QtyPerPackage == 0 && t.Packaging == entity.PackagingPiece {
		t.QtyPerPackage = 1
	}
	if req.MinStock != nil {
		t.MinStock = *req.MinStock
	}
	if req.MaxStock != nil {
		t.MaxStock = *req.MaxStock
	}

	if err := s.validate(ctx, t); err != nil {
		return nil, err
	}
	if err := s.repos.ToolType.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tool type: %w", err)
	}
	return s.repos.ToolType.FindByID(ctx, t.ID)
}

// UpdateToolType edits a catalog entry. Existing instances keep the packaging
// they were created with.
func (s *CatalogService) UpdateToolType(ctx context.Context, id string, req *UpdateToolTypeRequest) (*entity.ToolType, error) {
	t, err := s.repos.ToolType.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "tool type", id)
	}

	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.CatalogNumber != nil {
		t.CatalogNumber = *req.CatalogNumber
	}
	if req.Packaging != nil {
		t.Packaging = *req.Packaging
	}
	if req.QtyPerPackage != nil {
		t.QtyPerPackage = *req.QtyPerPackage
	}
	if req.MinStock != nil {
		t.MinStock = *req.MinStock
	}
	if req.MaxStock != nil {
		t.MaxStock = *req.MaxStock
	}
	if req.SubcategoryID != nil {
		t.SubcategoryID = emptyToNil(*req.SubcategoryID)
	}
	if req.LastSupplierID != nil {
		t.LastSupplierID = emptyToNil(*req.LastSupplierID)
	}
	if req.DefaultLocationID != nil {
		t.DefaultLocationID = emptyToNil(*req.DefaultLocationID)
	}

	if err := s.validate(ctx, t); err != nil {
		return nil, err
	}
	if err := s.repos.ToolType.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tool type: %w", err)
	}
	return s.repos.ToolType.FindByID(ctx, id)
}

// DeleteToolType removes a catalog entry that has no instances and was never
// ordered. A pending suggestion for it goes too.
func (s *CatalogService) DeleteToolType(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		if _, err := repos.ToolType.FindForUpdate(ctx, id); err != nil {
			return missing(err, "tool type", id)
		}
		n, err := repos.ToolType.CountInstances(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: tool type still has %d instances", ErrInvalidState, n)
		}
		n, err = repos.ToolType.CountOrderPositions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: tool type appears on %d order positions", ErrInvalidState, n)
		}
		if err := tx.Where("tool_type_id = ?", id).Delete(&entity.ReplenishmentSuggestion{}).Error; err != nil {
			return err
		}
		return repos.ToolType.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.stock.Invalidate(ctx, id)
	return nil
}

func (s *CatalogService) validate(ctx context.Context, t *entity.ToolType) error {
	if t.Description == "" {
		return validationf("description is required")
	}
	if err := ValidatePackaging(t.Packaging, t.QtyPerPackage); err != nil {
		return err
	}
	if t.MinStock < 0 || t.MaxStock < 0 {
		return validationf("stock thresholds must not be negative")
	}
	if t.SubcategoryID != nil {
		if _, err := s.repos.Category.FindSubcategory(ctx, *t.SubcategoryID); err != nil {
			return missing(err, "subcategory", *t.SubcategoryID)
		}
	}
	if t.LastSupplierID != nil {
		if _, err := s.repos.Supplier.FindByID(ctx, *t.LastSupplierID); err != nil {
			return missing(err, "supplier", *t.LastSupplierID)
		}
	}
	if t.DefaultLocationID != nil {
		if _, err := s.repos.Location.FindByID(ctx, *t.DefaultLocationID); err != nil {
			return missing(err, "location", *t.DefaultLocationID)
		}
	}
	return nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
