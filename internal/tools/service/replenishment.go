package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SuggestedQuantity converts a shortfall in pieces into an order quantity:
// whole packages for SET packaging, pieces otherwise. Zero when nothing is
// missing. A zero threshold never reorders.
func SuggestedQuantity(maxStock, total int, packaging string, qtyPerPackage int) int {
	shortfall := maxStock - total
	if shortfall <= 0 {
		return 0
	}
	if packaging == entity.PackagingSet && qtyPerPackage > 0 {
		return (shortfall + qtyPerPackage - 1) / qtyPerPackage
	}
	return shortfall
}

// NextOrderNumber returns the next "YYYY/MM/NNN" number for the month of now,
// one above the highest suffix among existing numbers with that prefix.
func NextOrderNumber(now time.Time, existing []string) string {
	prefix := now.Format("2006/01") + "/"
	highest := 0
	for _, number := range existing {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}

// ReplenishmentService maintains the pending suggestion list and turns it
// into draft orders.
type ReplenishmentService struct {
	repos *repository.Repositories
	db    *gorm.DB
	stock *StockService
	log   *zap.Logger
}

func NewReplenishmentService(repos *repository.Repositories, db *gorm.DB, stock *StockService, log *zap.Logger) *ReplenishmentService {
	return &ReplenishmentService{repos: repos, db: db, stock: stock, log: log}
}

type AddSuggestionRequest struct {
	ToolTypeID string           `json:"tool_type_id" binding:"required"`
	SupplierID *string          `json:"supplier_id"`
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
}

// UpdateSuggestionRequest changes only the fields that are set. An empty
// SupplierID clears the supplier.
type UpdateSuggestionRequest struct {
	SupplierID    *string          `json:"supplier_id"`
	CatalogNumber *string          `json:"catalog_number"`
	Quantity      *int             `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
}

func (s *ReplenishmentService) ListSuggestions(ctx context.Context) ([]entity.ReplenishmentSuggestion, error) {
	return s.repos.Suggestion.FindAll(ctx)
}

// GenerateSuggestions adds a suggestion for every tool type below its
// max-stock threshold that has none yet. Running it again adds nothing new.
func (s *ReplenishmentService) GenerateSuggestions(ctx context.Context) ([]entity.ReplenishmentSuggestion, error) {
	toolTypes, err := s.repos.ToolType.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.stock.ComputeStockAll(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.repos.Suggestion.ToolTypeIDs(ctx)
	if err != nil {
		return nil, err
	}

	var created []entity.ReplenishmentSuggestion
	for _, t := range toolTypes {
		if pending[t.ID] {
			continue
		}
		qty := SuggestedQuantity(t.MaxStock, stock[t.ID].Total, t.Packaging, t.QtyPerPackage)
		if qty == 0 {
			continue
		}

		suggestion := &entity.ReplenishmentSuggestion{
			ID:            entity.NewID(),
			ToolTypeID:    t.ID,
			SupplierID:    t.LastSupplierID,
			CatalogNumber: t.CatalogNumber,
			Quantity:      qty,
		}
		if t.LastSupplierID != nil {
			price, err := s.repos.Order.LastUnitPrice(ctx, t.ID, *t.LastSupplierID)
			if err != nil {
				return nil, err
			}
			suggestion.UnitPrice = price
		}

		inserted, err := s.repos.Suggestion.CreateIfAbsent(ctx, suggestion)
		if err != nil {
			return nil, fmt.Errorf("create suggestion: %w", err)
		}
		if inserted {
			created = append(created, *suggestion)
		}
	}

	s.log.Info("replenishment suggestions generated", zap.Int("created", len(created)))
	return created, nil
}

// AddSuggestion puts a tool type on the list by hand. Quantity defaults to
// the computed shortfall, or 1 when stock is already sufficient.
func (s *ReplenishmentService) AddSuggestion(ctx context.Context, req *AddSuggestionRequest) (*entity.ReplenishmentSuggestion, error) {
	t, err := s.repos.ToolType.FindByID(ctx, req.ToolTypeID)
	if err != nil {
		return nil, missing(err, "tool type", req.ToolTypeID)
	}

	supplierID := t.LastSupplierID
	if req.SupplierID != nil {
		supplierID = emptyToNil(*req.SupplierID)
	}
	if supplierID != nil {
		if _, err := s.repos.Supplier.FindByID(ctx, *supplierID); err != nil {
			return nil, missing(err, "supplier", *supplierID)
		}
	}

	qty := req.Quantity
	if qty < 0 {
		return nil, validationf("quantity must be positive")
	}
	if qty == 0 {
		summary, err := s.repos.Stock.ForToolType(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		qty = SuggestedQuantity(t.MaxStock, summary.Total, t.Packaging, t.QtyPerPackage)
		if qty == 0 {
			qty = 1
		}
	}

	suggestion := &entity.ReplenishmentSuggestion{
		ID:            entity.NewID(),
		ToolTypeID:    t.ID,
		SupplierID:    supplierID,
		CatalogNumber: t.CatalogNumber,
		Quantity:      qty,
	}
	switch {
	case req.UnitPrice != nil:
		suggestion.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
	case supplierID != nil:
		price, err := s.repos.Order.LastUnitPrice(ctx, t.ID, *supplierID)
		if err != nil {
			return nil, err
		}
		suggestion.UnitPrice = price
	}

	inserted, err := s.repos.Suggestion.CreateIfAbsent(ctx, suggestion)
	if err != nil {
		return nil, fmt.Errorf("create suggestion: %w", err)
	}
	if !inserted {
		return nil, validationf("tool type %s is already on the list", t.Description)
	}
	return s.repos.Suggestion.FindByID(ctx, suggestion.ID)
}

// UpdateSuggestion edits a pending suggestion. A changed catalog number or
// supplier is also written back to the tool type.
func (s *ReplenishmentService) UpdateSuggestion(ctx context.Context, id string, req *UpdateSuggestionRequest) (*entity.ReplenishmentSuggestion, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		suggestion, err := repos.Suggestion.FindByID(ctx, id)
		if err != nil {
			return missing(err, "suggestion", id)
		}
		t, err := repos.ToolType.FindForUpdate(ctx, suggestion.ToolTypeID)
		if err != nil {
			return missing(err, "tool type", suggestion.ToolTypeID)
		}
		toolTypeChanged := false

		if req.SupplierID != nil {
			suggestion.SupplierID = emptyToNil(*req.SupplierID)
			if suggestion.SupplierID != nil {
				if _, err := repos.Supplier.FindByID(ctx, *suggestion.SupplierID); err != nil {
					return missing(err, "supplier", *suggestion.SupplierID)
				}
				t.LastSupplierID = suggestion.SupplierID
				toolTypeChanged = true
			}
		}
		if req.CatalogNumber != nil {
			suggestion.CatalogNumber = *req.CatalogNumber
			t.CatalogNumber = *req.CatalogNumber
			toolTypeChanged = true
		}
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return validationf("quantity must be positive")
			}
			suggestion.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			suggestion.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
		}

		suggestion.ToolType = nil
		suggestion.Supplier = nil
		if err := repos.Suggestion.Update(ctx, suggestion); err != nil {
			return fmt.Errorf("update suggestion: %w", err)
		}
		if toolTypeChanged {
			if err := repos.ToolType.Update(ctx, t); err != nil {
				return fmt.Errorf("update tool type: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Suggestion.FindByID(ctx, id)
}

// RemoveSuggestion drops a suggestion and lowers the tool type's max-stock
// threshold to its current total so the next run does not bring it back.
func (s *ReplenishmentService) RemoveSuggestion(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		suggestion, err := repos.Suggestion.FindByID(ctx, id)
		if err != nil {
			return missing(err, "suggestion", id)
		}
		summary, err := repos.Stock.ForToolType(ctx, suggestion.ToolTypeID)
		if err != nil {
			return err
		}
		if err := repos.ToolType.UpdateMaxStock(ctx, suggestion.ToolTypeID, summary.Total); err != nil {
			return fmt.Errorf("reset max stock: %w", err)
		}
		return missing(repos.Suggestion.Delete(ctx, id), "suggestion", id)
	})
}

// FinalizeSuggestions turns the list into one draft order per supplier and
// clears the consumed suggestions. Suggestions without a supplier stay on
// the list.
func (s *ReplenishmentService) FinalizeSuggestions(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		suggestions, err := repos.Suggestion.FindAll(ctx)
		if err != nil {
			return err
		}

		grouped := make(map[string][]entity.ReplenishmentSuggestion)
		for _, sg := range suggestions {
			if sg.SupplierID == nil {
				continue
			}
			grouped[*sg.SupplierID] = append(grouped[*sg.SupplierID], sg)
		}
		if len(grouped) == 0 {
			return validationf("no suggestions with a supplier to order")
		}

		supplierIDs := make([]string, 0, len(grouped))
		for id := range grouped {
			supplierIDs = append(supplierIDs, id)
		}
		sort.Strings(supplierIDs)

		if err := repos.Order.LockNumbering(ctx); err != nil {
			return fmt.Errorf("lock order numbering: %w", err)
		}
		now := time.Now()
		existing, err := repos.Order.NumbersWithPrefix(ctx, now.Format("2006/01")+"/")
		if err != nil {
			return err
		}

		var consumed []string
		for _, supplierID := range supplierIDs {
			if _, err := repos.Supplier.FindByID(ctx, supplierID); err != nil {
				return missing(err, "supplier", supplierID)
			}
			number := NextOrderNumber(now, existing)
			existing = append(existing, number)

			order := entity.Order{
				ID:         entity.NewID(),
				Number:     number,
				SupplierID: supplierID,
				Status:     entity.OrderStatusDraft,
			}
			for i, sg := range grouped[supplierID] {
				t := sg.ToolType
				if t == nil {
					return fmt.Errorf("%w: tool type %s", ErrNotFound, sg.ToolTypeID)
				}
				order.Positions = append(order.Positions, entity.OrderPosition{
					ID:           entity.NewID(),
					OrderID:      order.ID,
					ToolTypeID:   t.ID,
					RequestedQty: sg.Quantity,
					Unit:         t.Packaging,
					QtyPerUnit:   t.QtyPerPackage,
					UnitPrice:    sg.UnitPrice,
					SortOrder:    i + 1,
				})
				consumed = append(consumed, sg.ID)
				if err := repos.ToolType.SetLastSupplier(ctx, t.ID, supplierID); err != nil {
					return err
				}
			}
			if err := repos.Order.Create(ctx, &order); err != nil {
				return fmt.Errorf("create order %s: %w", number, err)
			}
			orders = append(orders, order)
		}

		return repos.Suggestion.DeleteByIDs(ctx, consumed)
	})
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		s.log.Info("order created from suggestions",
			zap.String("order_id", o.ID),
			zap.String("number", o.Number),
			zap.Int("positions", len(o.Positions)),
		)
	}
	return orders, nil
}
