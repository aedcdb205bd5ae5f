package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService runs purchase orders from draft to completed delivery.
type OrderService struct {
	repos    *repository.Repositories
	db       *gorm.DB
	stock    *StockService
	mailer   Mailer
	mailFrom string
	log      *zap.Logger
}

func NewOrderService(repos *repository.Repositories, db *gorm.DB, stock *StockService, mailer Mailer, mailFrom string, log *zap.Logger) *OrderService {
	if mailer == nil {
		mailer = NewLogMailer(log)
	}
	return &OrderService{
		repos:    repos,
		db:       db,
		stock:    stock,
		mailer:   mailer,
		mailFrom: mailFrom,
		log:      log,
	}
}

// FulfillmentEntry is what arrived for one order position.
type FulfillmentEntry struct {
	PositionID  string  `json:"position_id" binding:"required"`
	ReceivedQty int     `json:"received_qty" binding:"required"`
	LocationID  *string `json:"location_id"`
}

// FulfillmentRequest records one receiving event.
type FulfillmentRequest struct {
	Entries           []FulfillmentEntry `json:"entries" binding:"required"`
	DefaultLocationID *string            `json:"default_location_id"`
	Notes             string             `json:"notes"`
}

// OrderDetail is an order together with its receiving history.
type OrderDetail struct {
	*entity.Order
	TotalValue   string               `json:"total_value"`
	Fulfillments []entity.Fulfillment `json:"fulfillments"`
}

func (s *OrderService) ListOrders(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Order, int64, error) {
	return s.repos.Order.FindAll(ctx, page, pageSize, filters)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	o, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "order", id)
	}
	return o, nil
}

func (s *OrderService) GetOrderDetail(ctx context.Context, id string) (*OrderDetail, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	fulfillments, err := s.repos.Fulfillment.FindByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{
		Order:        o,
		TotalValue:   o.TotalValue().StringFixed(2),
		Fulfillments: fulfillments,
	}, nil
}

// VerifyOrder moves a draft to VERIFIED.
func (s *OrderService) VerifyOrder(ctx context.Context, id string) (*entity.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		o, err := repos.Order.FindForUpdate(ctx, id)
		if err != nil {
			return missing(err, "order", id)
		}
		if o.Status != entity.OrderStatusDraft {
			return fmt.Errorf("%w: only draft orders can be verified, order is %s", ErrInvalidState, o.Status)
		}
		return repos.Order.UpdateStatus(ctx, id, entity.OrderStatusVerified)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// SendOrder marks a draft or verified order SENT and mails the spreadsheet
// to the supplier. A failed mail rolls the status back.
func (s *OrderService) SendOrder(ctx context.Context, id string) (*entity.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		o, err := repos.Order.FindForUpdate(ctx, id)
		if err != nil {
			return missing(err, "order", id)
		}
		if o.Status != entity.OrderStatusDraft && o.Status != entity.OrderStatusVerified {
			return fmt.Errorf("%w: order %s was already sent", ErrInvalidState, o.Number)
		}
		supplier, err := repos.Supplier.FindByID(ctx, o.SupplierID)
		if err != nil {
			return missing(err, "supplier", o.SupplierID)
		}
		if supplier.Email == "" {
			return validationf("supplier %s has no email address", supplier.Name)
		}

		if err := repos.Order.MarkSent(ctx, id, time.Now()); err != nil {
			return fmt.Errorf("mark order sent: %w", err)
		}

		snapshot, err := repos.Order.FindByID(ctx, id)
		if err != nil {
			return err
		}
		f, err := RenderOrder(snapshot)
		if err != nil {
			return fmt.Errorf("render order: %w", err)
		}
		defer f.Close()
		buf, err := f.WriteToBuffer()
		if err != nil {
			return fmt.Errorf("render order: %w", err)
		}

		mail := &OrderMail{
			From:           s.mailFrom,
			To:             supplier.Email,
			Subject:        "Purchase order " + snapshot.Number,
			Order:          snapshot,
			Attachment:     buf.Bytes(),
			AttachmentName: OrderFileName(snapshot.Number),
		}
		if err := s.mailer.SendOrder(ctx, mail); err != nil {
			return fmt.Errorf("send order mail: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order sent", zap.String("order_id", id))
	return s.GetOrder(ctx, id)
}

// ExportOrder renders the order spreadsheet. The caller closes the file.
func (s *OrderService) ExportOrder(ctx context.Context, id string) (*excelize.File, string, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, "", err
	}
	f, err := RenderOrder(o)
	if err != nil {
		return nil, "", fmt.Errorf("render order: %w", err)
	}
	return f, OrderFileName(o.Number), nil
}

// ApplyFulfillment adds the received quantities to the order's positions
// and returns the resulting order status. Nothing is changed when any entry
// is invalid: unknown position, non-positive quantity or over-delivery.
func ApplyFulfillment(order *entity.Order, entries []FulfillmentEntry) (string, error) {
	if len(entries) == 0 {
		return "", validationf("fulfillment has no entries")
	}

	index := make(map[string]int, len(order.Positions))
	for i, p := range order.Positions {
		index[p.ID] = i
	}

	delivered := make(map[string]int, len(order.Positions))
	for _, p := range order.Positions {
		delivered[p.ID] = p.DeliveredQty
	}
	for _, e := range entries {
		i, ok := index[e.PositionID]
		if !ok {
			return "", fmt.Errorf("%w: position %s on order %s", ErrNotFound, e.PositionID, order.Number)
		}
		if e.ReceivedQty <= 0 {
			return "", validationf("received quantity must be positive")
		}
		p := order.Positions[i]
		delivered[p.ID] += e.ReceivedQty
		if delivered[p.ID] > p.RequestedQty {
			return "", fmt.Errorf("%w: position %s would receive %d of %d requested",
				ErrOverDelivery, p.ID, delivered[p.ID], p.RequestedQty)
		}
	}

	for i := range order.Positions {
		p := &order.Positions[i]
		p.DeliveredQty = delivered[p.ID]
		p.FullyRealized = p.DeliveredQty == p.RequestedQty
	}
	if order.IsFullyRealized() {
		return entity.OrderStatusCompleted, nil
	}
	return entity.OrderStatusPartiallyReceived, nil
}

// RecordFulfillment books a delivery against an order: one new instance per
// entry, updated positions and order status. Either every entry applies or
// none does.
func (s *OrderService) RecordFulfillment(ctx context.Context, orderID string, req *FulfillmentRequest, receivedBy string) (*entity.Order, error) {
	var touched []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		o, err := repos.Order.FindForUpdate(ctx, orderID)
		if err != nil {
			return missing(err, "order", orderID)
		}
		if o.Status == entity.OrderStatusDraft || o.Status == entity.OrderStatusVerified {
			return fmt.Errorf("%w: order %s has not been sent", ErrInvalidState, o.Number)
		}

		status, err := ApplyFulfillment(o, req.Entries)
		if err != nil {
			return err
		}

		positions := make(map[string]*entity.OrderPosition, len(o.Positions))
		for i := range o.Positions {
			positions[o.Positions[i].ID] = &o.Positions[i]
		}

		defaultLocation := emptyPtrToNil(req.DefaultLocationID)
		locations := make(map[string]bool)
		toolTypes := make(map[string]*entity.ToolType)
		now := time.Now()

		fulfillment := &entity.Fulfillment{
			ID:                entity.NewID(),
			OrderID:           o.ID,
			ReceivedAt:        now,
			DefaultLocationID: defaultLocation,
			Notes:             req.Notes,
			ReceivedBy:        receivedBy,
		}

		for _, e := range req.Entries {
			pos := positions[e.PositionID]

			location := emptyPtrToNil(e.LocationID)
			if location == nil {
				location = defaultLocation
			}
			if location != nil && !locations[*location] {
				if _, err := repos.Location.FindByID(ctx, *location); err != nil {
					return missing(err, "location", *location)
				}
				locations[*location] = true
			}

			toolType, ok := toolTypes[pos.ToolTypeID]
			if !ok {
				toolType, err = repos.ToolType.FindByID(ctx, pos.ToolTypeID)
				if err != nil {
					return missing(err, "tool type", pos.ToolTypeID)
				}
				toolTypes[pos.ToolTypeID] = toolType
				touched = append(touched, pos.ToolTypeID)
			}

			inst := NewInstance(toolType, entity.StateNew, location, nil, &o.ID, now)
			if err := repos.Instance.Create(ctx, inst); err != nil {
				return fmt.Errorf("create instance: %w", err)
			}

			fulfillment.Positions = append(fulfillment.Positions, entity.FulfillmentPosition{
				ID:              entity.NewID(),
				FulfillmentID:   fulfillment.ID,
				OrderPositionID: pos.ID,
				ReceivedQty:     e.ReceivedQty,
				LocationID:      location,
				InstanceID:      inst.ID,
			})
		}

		if err := repos.Fulfillment.Create(ctx, fulfillment); err != nil {
			return fmt.Errorf("create fulfillment: %w", err)
		}
		for i := range o.Positions {
			if err := repos.Order.UpdatePositionDelivery(ctx, &o.Positions[i]); err != nil {
				return fmt.Errorf("update position: %w", err)
			}
		}
		return repos.Order.UpdateStatus(ctx, o.ID, status)
	})
	if err != nil {
		return nil, err
	}

	s.stock.Invalidate(ctx, touched...)
	s.log.Info("fulfillment recorded",
		zap.String("order_id", orderID),
		zap.Int("entries", len(req.Entries)),
		zap.String("received_by", receivedBy),
	)
	return s.GetOrder(ctx, orderID)
}
