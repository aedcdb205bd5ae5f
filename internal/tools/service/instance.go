package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewInstance builds an instance of toolType. Unit and QtyPerUnit are copied
// by value so later catalog edits leave the instance untouched.
func NewInstance(toolType *entity.ToolType, state string, locationID, invoiceID, orderID *string, now time.Time) *entity.ToolInstance {
	purchased := now
	return &entity.ToolInstance{
		ID:          entity.NewID(),
		ToolTypeID:  toolType.ID,
		State:       state,
		LocationID:  locationID,
		InvoiceID:   invoiceID,
		OrderID:     orderID,
		Unit:        toolType.Packaging,
		QtyPerUnit:  toolType.QtyPerPackage,
		PurchasedAt: &purchased,
	}
}

// LedgerService manages physical instances.
type LedgerService struct {
	repos *repository.Repositories
	db    *gorm.DB
	stock *StockService
	log   *zap.Logger
}

func NewLedgerService(repos *repository.Repositories, db *gorm.DB, stock *StockService, log *zap.Logger) *LedgerService {
	return &LedgerService{repos: repos, db: db, stock: stock, log: log}
}

// CreateInstanceRequest registers a physical instance. State defaults to NEW.
type CreateInstanceRequest struct {
	ToolTypeID string  `json:"tool_type_id" binding:"required"`
	State      string  `json:"state"`
	LocationID *string `json:"location_id"`
	InvoiceID  *string `json:"invoice_id"`
	OrderID    *string `json:"order_id"`
}

// UpdateInstanceRequest moves an instance or attaches it to an invoice.
// State changes go through checkout and return.
type UpdateInstanceRequest struct {
	LocationID *string `json:"location_id"`
	InvoiceID  *string `json:"invoice_id"`
}

func (s *LedgerService) ListInstances(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ToolInstance, int64, error) {
	return s.repos.Instance.FindAll(ctx, page, pageSize, filters)
}

func (s *LedgerService) GetInstance(ctx context.Context, id string) (*entity.ToolInstance, error) {
	inst, err := s.repos.Instance.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "instance", id)
	}
	return inst, nil
}

func (s *LedgerService) CreateInstance(ctx context.Context, req *CreateInstanceRequest) (*entity.ToolInstance, error) {
	state := req.State
	if state == "" {
		state = entity.StateNew
	}
	if !validState(state) {
		return nil, validationf("unknown instance state %q", state)
	}

	toolType, err := s.repos.ToolType.FindByID(ctx, req.ToolTypeID)
	if err != nil {
		return nil, missing(err, "tool type", req.ToolTypeID)
	}
	if err := s.checkPlacement(ctx, req.LocationID, req.InvoiceID); err != nil {
		return nil, err
	}
	if req.OrderID != nil {
		if _, err := s.repos.Order.FindByID(ctx, *req.OrderID); err != nil {
			return nil, missing(err, "order", *req.OrderID)
		}
	}

	inst := NewInstance(toolType, state, req.LocationID, req.InvoiceID, req.OrderID, time.Now())
	if err := s.repos.Instance.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	s.stock.Invalidate(ctx, toolType.ID)

	return s.repos.Instance.FindByID(ctx, inst.ID)
}

func (s *LedgerService) UpdateInstance(ctx context.Context, id string, req *UpdateInstanceRequest) (*entity.ToolInstance, error) {
	inst, err := s.repos.Instance.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "instance", id)
	}
	locationID, invoiceID := inst.LocationID, inst.InvoiceID
	if req.LocationID != nil {
		locationID = emptyToNil(*req.LocationID)
	}
	if req.InvoiceID != nil {
		invoiceID = emptyToNil(*req.InvoiceID)
	}
	if err := s.checkPlacement(ctx, locationID, invoiceID); err != nil {
		return nil, err
	}
	if err := s.repos.Instance.UpdatePlacement(ctx, id, locationID, invoiceID); err != nil {
		return nil, fmt.Errorf("update instance: %w", err)
	}
	return s.repos.Instance.FindByID(ctx, id)
}

// DeleteDamagedInstance deletes an instance. A damaged one is archived first
// as a DamageReport naming the employee of its latest checkout. Returns
// whether a report was written and the id of the deleted instance.
func (s *LedgerService) DeleteDamagedInstance(ctx context.Context, id string) (bool, string, error) {
	var archived bool
	var toolTypeID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		inst, err := repos.Instance.FindForUpdate(ctx, id)
		if err != nil {
			return missing(err, "instance", id)
		}
		toolTypeID = inst.ToolTypeID

		if entity.IsDamaged(inst.State) {
			description := fmt.Sprintf("Instance %s", inst.ID)
			if toolType, err := repos.ToolType.FindByID(ctx, inst.ToolTypeID); err == nil {
				description = fmt.Sprintf("Instance %s - %s", inst.ID, toolType.Description)
			}

			report := &entity.DamageReport{
				ID:          entity.NewID(),
				InstanceID:  &inst.ID,
				ReportedAt:  time.Now(),
				Description: description,
			}
			last, err := repos.Checkout.LatestForInstance(ctx, inst.ID)
			switch {
			case err == nil:
				report.EmployeeID = last.EmployeeID
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}

			if err := repos.Damage.Create(ctx, report); err != nil {
				return fmt.Errorf("archive damaged instance: %w", err)
			}
			archived = true
		}

		if err := repos.Instance.Delete(ctx, inst.ID); err != nil {
			return missing(err, "instance", id)
		}
		return nil
	})
	if err != nil {
		return false, "", err
	}

	s.stock.Invalidate(ctx, toolTypeID)
	s.log.Info("instance deleted",
		zap.String("instance_id", id),
		zap.String("tool_type_id", toolTypeID),
		zap.Bool("archived", archived),
	)
	return archived, id, nil
}

func (s *LedgerService) ListDamageReports(ctx context.Context, page, pageSize int, instanceID string) ([]entity.DamageReport, int64, error) {
	return s.repos.Damage.FindAll(ctx, page, pageSize, instanceID)
}

func (s *LedgerService) checkPlacement(ctx context.Context, locationID, invoiceID *string) error {
	if locationID != nil {
		if _, err := s.repos.Location.FindByID(ctx, *locationID); err != nil {
			return missing(err, "location", *locationID)
		}
	}
	if invoiceID != nil {
		if _, err := s.repos.Invoice.FindByID(ctx, *invoiceID); err != nil {
			return missing(err, "invoice", *invoiceID)
		}
	}
	return nil
}

func validState(state string) bool {
	switch state {
	case entity.StateNew, entity.StateUsed, entity.StateDamaged, entity.StateDamagedForRegen:
		return true
	}
	return false
}

func containsState(states []string, state string) bool {
	for _, st := range states {
		if st == state {
			return true
		}
	}
	return false
}
