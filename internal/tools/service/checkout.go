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

// Damage report descriptions used when a return carries no notes.
const (
	DefaultDamagedNote      = "Damaged during use"
	DefaultDamagedRegenNote = "Damaged, sent for regeneration"
)

// CheckoutService lends instances out and takes them back.
type CheckoutService struct {
	repos *repository.Repositories
	db    *gorm.DB
	stock *StockService
	log   *zap.Logger
}

func NewCheckoutService(repos *repository.Repositories, db *gorm.DB, stock *StockService, log *zap.Logger) *CheckoutService {
	return &CheckoutService{repos: repos, db: db, stock: stock, log: log}
}

// CheckoutRequest issues an instance to an employee, optionally for a machine.
type CheckoutRequest struct {
	InstanceID string  `json:"instance_id" binding:"required"`
	EmployeeID string  `json:"employee_id"`
	MachineID  *string `json:"machine_id"`
	Notes      string  `json:"notes"`
}

// ReturnRequest closes a checkout. ReturnedByID defaults to nobody.
type ReturnRequest struct {
	NewState     string  `json:"new_state"`
	ReturnedByID *string `json:"returned_by_id"`
	Notes        string  `json:"notes"`
}

// Checkout opens a checkout record. The instance row stays locked until the
// record is committed, so of two concurrent calls for the same instance
// exactly one succeeds.
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*entity.CheckoutRecord, error) {
	if req.EmployeeID == "" {
		return nil, ErrMissingEmployee
	}

	var rec *entity.CheckoutRecord
	var toolTypeID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		inst, err := repos.Instance.FindForUpdate(ctx, req.InstanceID)
		if err != nil {
			return missing(err, "instance", req.InstanceID)
		}
		toolTypeID = inst.ToolTypeID

		if _, err := repos.Employee.FindByID(ctx, req.EmployeeID); err != nil {
			return missing(err, "employee", req.EmployeeID)
		}
		if req.MachineID != nil && *req.MachineID != "" {
			if _, err := repos.Machine.FindByID(ctx, *req.MachineID); err != nil {
				return missing(err, "machine", *req.MachineID)
			}
		}

		if !containsState(entity.CheckoutStates, inst.State) {
			return fmt.Errorf("%w: instance %s is %s", ErrInvalidState, inst.ID, inst.State)
		}

		open, err := repos.Checkout.HasOpen(ctx, inst.ID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: %s", ErrAlreadyInUse, inst.ID)
		}

		employeeID := req.EmployeeID
		rec = &entity.CheckoutRecord{
			ID:         entity.NewID(),
			InstanceID: inst.ID,
			EmployeeID: &employeeID,
			MachineID:  emptyPtrToNil(req.MachineID),
			IssuedAt:   time.Now(),
			Notes:      req.Notes,
		}
		if err := repos.Checkout.Create(ctx, rec); err != nil {
			return fmt.Errorf("create checkout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.stock.Invalidate(ctx, toolTypeID)
	s.log.Info("instance checked out",
		zap.String("checkout_id", rec.ID),
		zap.String("instance_id", rec.InstanceID),
		zap.String("employee_id", req.EmployeeID),
	)
	return s.repos.Checkout.FindByID(ctx, rec.ID)
}

// ReturnInstance closes an open checkout and moves the instance to newState.
// A damaged return also writes a DamageReport in the same transaction.
func (s *CheckoutService) ReturnInstance(ctx context.Context, checkoutID string, req *ReturnRequest) (*entity.CheckoutRecord, error) {
	var toolTypeID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		rec, err := repos.Checkout.FindForUpdate(ctx, checkoutID)
		if err != nil {
			return missing(err, "checkout", checkoutID)
		}
		if !rec.IsOpen() {
			return fmt.Errorf("%w: %s", ErrAlreadyClosed, checkoutID)
		}
		if !containsState(entity.ReturnStates, req.NewState) {
			return fmt.Errorf("%w: cannot return into state %q", ErrInvalidState, req.NewState)
		}

		returnedBy := emptyPtrToNil(req.ReturnedByID)
		if returnedBy != nil {
			if _, err := repos.Employee.FindByID(ctx, *returnedBy); err != nil {
				return missing(err, "employee", *returnedBy)
			}
		}

		inst, err := repos.Instance.FindForUpdate(ctx, rec.InstanceID)
		if err != nil {
			return missing(err, "instance", rec.InstanceID)
		}
		toolTypeID = inst.ToolTypeID

		now := time.Now()
		if err := repos.Checkout.Close(ctx, rec.ID, now, returnedBy, req.Notes); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrAlreadyClosed, checkoutID)
			}
			return err
		}
		if err := repos.Instance.UpdateState(ctx, inst.ID, req.NewState); err != nil {
			return fmt.Errorf("update instance state: %w", err)
		}

		if entity.IsDamaged(req.NewState) {
			report := &entity.DamageReport{
				ID:          entity.NewID(),
				InstanceID:  &inst.ID,
				ReportedAt:  now,
				Description: damageNote(req.NewState, req.Notes),
				EmployeeID:  rec.EmployeeID,
			}
			if err := repos.Damage.Create(ctx, report); err != nil {
				return fmt.Errorf("create damage report: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.stock.Invalidate(ctx, toolTypeID)
	s.log.Info("instance returned",
		zap.String("checkout_id", checkoutID),
		zap.String("new_state", req.NewState),
	)
	return s.repos.Checkout.FindByID(ctx, checkoutID)
}

func (s *CheckoutService) ListCheckouts(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.CheckoutRecord, int64, error) {
	return s.repos.Checkout.FindAll(ctx, page, pageSize, filters)
}

func (s *CheckoutService) GetCheckout(ctx context.Context, id string) (*entity.CheckoutRecord, error) {
	rec, err := s.repos.Checkout.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "checkout", id)
	}
	return rec, nil
}

func damageNote(state, notes string) string {
	if notes != "" {
		return notes
	}
	if state == entity.StateDamagedForRegen {
		return DefaultDamagedRegenNote
	}
	return DefaultDamagedNote
}

func emptyPtrToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
