package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/toolroom/internal/config"
	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"github.com/bitfantasy/toolroom/internal/tools/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{}
	cfg.Mail.From = "toolroom@test"
	return NewServices(repository.NewRepositories(db), db, nil, nil, cfg, zap.NewNop()), db
}

func TestCheckoutConcurrentSameInstance(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "End mill 10mm", entity.PackagingPiece, 1)
	inst := testutil.SeedInstance(t, db, tt, entity.StateNew)
	e1 := testutil.SeedEmployee(t, db, "001", "Nowak")
	e2 := testutil.SeedEmployee(t, db, "002", "Kowalski")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, emp := range []*entity.Employee{e1, e2} {
		wg.Add(1)
		go func(i int, employeeID string) {
			defer wg.Done()
			_, errs[i] = svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: inst.ID, EmployeeID: employeeID})
		}(i, emp.ID)
	}
	wg.Wait()

	succeeded, inUse := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyInUse):
			inUse++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || inUse != 1 {
		t.Fatalf("expected one success and one AlreadyInUse, got %d and %d", succeeded, inUse)
	}

	var open int64
	db.Model(&entity.CheckoutRecord{}).Where("instance_id = ? AND returned_at IS NULL", inst.ID).Count(&open)
	if open != 1 {
		t.Fatalf("expected 1 open record, got %d", open)
	}
}

func TestCheckoutErrors(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Tap M8", entity.PackagingPiece, 1)
	damaged := testutil.SeedInstance(t, db, tt, entity.StateDamaged)
	fresh := testutil.SeedInstance(t, db, tt, entity.StateNew)
	emp := testutil.SeedEmployee(t, db, "010", "Wisniewski")

	if _, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: fresh.ID}); !errors.Is(err, ErrMissingEmployee) {
		t.Fatalf("no employee: got %v", err)
	}
	if _, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: "missing", EmployeeID: emp.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing instance: got %v", err)
	}
	if _, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: fresh.ID, EmployeeID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing employee: got %v", err)
	}
	machine := "missing"
	if _, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: fresh.ID, EmployeeID: emp.ID, MachineID: &machine}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing machine: got %v", err)
	}
	if _, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: damaged.ID, EmployeeID: emp.ID}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("damaged instance: got %v", err)
	}
}

func TestReturnDamagedThenDeleteArchives(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Insert holder", entity.PackagingPiece, 1)
	inst := testutil.SeedInstance(t, db, tt, entity.StateUsed)
	emp := testutil.SeedEmployee(t, db, "020", "Zielinski")

	rec, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: inst.ID, EmployeeID: emp.ID})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	returned, err := svc.Checkout.ReturnInstance(ctx, rec.ID, &ReturnRequest{NewState: entity.StateDamaged})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.ReturnedAt == nil {
		t.Fatal("return time not set")
	}
	got, err := svc.Ledger.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.State != entity.StateDamaged {
		t.Fatalf("expected DAMAGED, got %s", got.State)
	}

	if _, err := svc.Checkout.ReturnInstance(ctx, rec.ID, &ReturnRequest{NewState: entity.StateUsed}); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("second return: expected AlreadyClosed, got %v", err)
	}

	archived, id, err := svc.Ledger.DeleteDamagedInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !archived || id != inst.ID {
		t.Fatalf("expected archived delete of %s, got %v %s", inst.ID, archived, id)
	}

	var reports []entity.DamageReport
	db.Where("instance_id = ?", inst.ID).Order("reported_at ASC").Find(&reports)
	if len(reports) != 2 {
		t.Fatalf("expected return and delete reports, got %d", len(reports))
	}
	if reports[0].Description != DefaultDamagedNote {
		t.Fatalf("unexpected return report %q", reports[0].Description)
	}
	archive := reports[1]
	if archive.EmployeeID == nil || *archive.EmployeeID != emp.ID {
		t.Fatalf("archive employee = %v, want %s", archive.EmployeeID, emp.ID)
	}
	if want := "Instance " + inst.ID + " - Insert holder"; archive.Description != want {
		t.Fatalf("archive description %q, want %q", archive.Description, want)
	}

	var count int64
	db.Model(&entity.ToolInstance{}).Where("id = ?", inst.ID).Count(&count)
	if count != 0 {
		t.Fatal("instance still exists")
	}
	db.Model(&entity.CheckoutRecord{}).Where("instance_id = ?", inst.ID).Count(&count)
	if count != 1 {
		t.Fatal("checkout history lost")
	}
}

func TestDeleteUndamagedInstanceSkipsArchive(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Reamer", entity.PackagingPiece, 1)
	inst := testutil.SeedInstance(t, db, tt, entity.StateNew)

	archived, _, err := svc.Ledger.DeleteDamagedInstance(ctx, inst.ID)
	if err != nil || archived {
		t.Fatalf("expected plain delete, got archived=%v err=%v", archived, err)
	}
	if _, _, err := svc.Ledger.DeleteDamagedInstance(ctx, inst.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
}

func TestReturnInvalidState(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Boring bar", entity.PackagingPiece, 1)
	inst := testutil.SeedInstance(t, db, tt, entity.StateNew)
	emp := testutil.SeedEmployee(t, db, "030", "Lewandowski")

	rec, err := svc.Checkout.Checkout(ctx, &CheckoutRequest{InstanceID: inst.ID, EmployeeID: emp.ID})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := svc.Checkout.ReturnInstance(ctx, rec.ID, &ReturnRequest{NewState: entity.StateNew}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("return as NEW: got %v", err)
	}
	if _, err := svc.Checkout.ReturnInstance(ctx, "missing", &ReturnRequest{NewState: entity.StateUsed}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing checkout: got %v", err)
	}

	summary, err := svc.Stock.ComputeStock(ctx, tt.ID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if summary.New != 1 || summary.InUse != 1 || summary.Total != 1 {
		t.Fatalf("checked-out NEW instance: %+v", summary)
	}
}

func TestComputeStockCountsEachStateIndependently(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Reamer 8H7", entity.PackagingPiece, 1)
	emp := testutil.SeedEmployee(t, db, "040", "Mazur")
	seed := func(state string, qty int, checkedOut bool) {
		inst := testutil.SeedInstance(t, db, tt, state)
		if qty != 1 {
			db.Model(&entity.ToolInstance{}).Where("id = ?", inst.ID).Update("qty_per_unit", qty)
		}
		if checkedOut {
			rec := &entity.CheckoutRecord{
				ID:         entity.NewID(),
				InstanceID: inst.ID,
				EmployeeID: &emp.ID,
				IssuedAt:   time.Now(),
			}
			if err := db.Omit("Instance", "Employee", "Machine", "ReturnedBy").Create(rec).Error; err != nil {
				t.Fatalf("seed checkout: %v", err)
			}
		}
	}
	seed(entity.StateNew, 1, false)
	seed(entity.StateNew, 1, true)
	seed(entity.StateUsed, 2, false)
	seed(entity.StateUsed, 3, true)
	seed(entity.StateDamaged, 5, true)
	seed(entity.StateDamagedForRegen, 7, false)

	other := testutil.SeedToolType(t, db, "Reamer 10H7", entity.PackagingPiece, 1)
	testutil.SeedInstance(t, db, other, entity.StateNew)

	want := entity.StockSummary{ToolTypeID: tt.ID, New: 2, AvailableUsed: 2, InUse: 9, Total: 7}
	got, err := svc.Stock.ComputeStock(ctx, tt.ID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if *got != want {
		t.Fatalf("got %+v, want %+v", *got, want)
	}
	if got.New+got.AvailableUsed+got.InUse == got.Total {
		t.Fatal("counts unexpectedly add up to total")
	}

	all, err := svc.Stock.ComputeStockAll(ctx)
	if err != nil {
		t.Fatalf("stock all: %v", err)
	}
	if all[tt.ID] != want {
		t.Fatalf("all: got %+v, want %+v", all[tt.ID], want)
	}
	if o := all[other.ID]; o.New != 1 || o.Total != 1 {
		t.Fatalf("other tool type: %+v", o)
	}
}

func TestDeleteToolTypeClearsCachedStock(t *testing.T) {
	rdb := testRedis(t)
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{}
	cfg.Redis.StockTTL = time.Minute
	svc := NewServices(repository.NewRepositories(db), db, rdb, nil, cfg, zap.NewNop())
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Chamfer mill", entity.PackagingPiece, 1)
	if _, err := svc.Stock.ComputeStock(ctx, tt.ID); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if err := svc.Catalog.DeleteToolType(ctx, tt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Stock.ComputeStock(ctx, tt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stock after delete: got %v", err)
	}
}

func TestCreateToolTypeKeepsZeroThresholds(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	zero := 0
	tt, err := svc.Catalog.CreateToolType(ctx, &CreateToolTypeRequest{
		Description: "Engraving cutter",
		Packaging:   entity.PackagingPiece,
		MinStock:    &zero,
		MaxStock:    &zero,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tt.MinStock != 0 || tt.MaxStock != 0 {
		t.Fatalf("thresholds stored as %d/%d, want 0/0", tt.MinStock, tt.MaxStock)
	}

	defaults, err := svc.Catalog.CreateToolType(ctx, &CreateToolTypeRequest{Description: "Spot drill"})
	if err != nil {
		t.Fatalf("create with defaults: %v", err)
	}
	if defaults.MinStock != 5 || defaults.MaxStock != 20 {
		t.Fatalf("default thresholds %d/%d, want 5/20", defaults.MinStock, defaults.MaxStock)
	}
}

func TestQtyPerUnitSnapshot(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	tt := testutil.SeedToolType(t, db, "Insert pack", entity.PackagingSet, 10)
	inst, err := svc.Ledger.CreateInstance(ctx, &CreateInstanceRequest{ToolTypeID: tt.ID})
	if err != nil {
		t.Fatalf("create instance: %v", err)
	}

	piece, one := entity.PackagingPiece, 1
	if _, err := svc.Catalog.UpdateToolType(ctx, tt.ID, &UpdateToolTypeRequest{Packaging: &piece, QtyPerPackage: &one}); err != nil {
		t.Fatalf("update tool type: %v", err)
	}

	got, err := svc.Ledger.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Unit != entity.PackagingSet || got.QtyPerUnit != 10 {
		t.Fatalf("instance changed with catalog: unit=%s qty=%d", got.Unit, got.QtyPerUnit)
	}

	bad := 1
	set := entity.PackagingSet
	if _, err := svc.Catalog.UpdateToolType(ctx, tt.ID, &UpdateToolTypeRequest{Packaging: &set, QtyPerPackage: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("set of one: got %v", err)
	}
	if err := svc.Catalog.DeleteToolType(ctx, tt.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete with instances: got %v", err)
	}
}

func TestRecordFulfillmentScenario(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	sup := testutil.SeedSupplier(t, db, "S1", "orders@s1.test")
	tt := testutil.SeedToolType(t, db, "Drill 6mm", entity.PackagingPiece, 1)
	order := testutil.SeedOrder(t, db, "2025/03/001", entity.OrderStatusSent, sup, tt, "4.20", 10)
	posID := order.Positions[0].ID

	o, err := svc.Order.RecordFulfillment(ctx, order.ID, &FulfillmentRequest{
		Entries: []FulfillmentEntry{{PositionID: posID, ReceivedQty: 6}},
	}, "tester")
	if err != nil {
		t.Fatalf("first fulfillment: %v", err)
	}
	if o.Status != entity.OrderStatusPartiallyReceived {
		t.Fatalf("after 6: status %s", o.Status)
	}

	o, err = svc.Order.RecordFulfillment(ctx, order.ID, &FulfillmentRequest{
		Entries: []FulfillmentEntry{{PositionID: posID, ReceivedQty: 4}},
	}, "tester")
	if err != nil {
		t.Fatalf("second fulfillment: %v", err)
	}
	if o.Status != entity.OrderStatusCompleted || !o.Positions[0].FullyRealized {
		t.Fatalf("after 10: status %s realized %v", o.Status, o.Positions[0].FullyRealized)
	}

	_, err = svc.Order.RecordFulfillment(ctx, order.ID, &FulfillmentRequest{
		Entries: []FulfillmentEntry{{PositionID: posID, ReceivedQty: 1}},
	}, "tester")
	if !errors.Is(err, ErrOverDelivery) {
		t.Fatalf("third fulfillment: expected OverDelivery, got %v", err)
	}

	var instances int64
	db.Model(&entity.ToolInstance{}).Where("order_id = ?", order.ID).Count(&instances)
	if instances != 2 {
		t.Fatalf("expected one instance per entry, got %d", instances)
	}
	detail, err := svc.Order.GetOrderDetail(ctx, order.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.Fulfillments) != 2 || detail.TotalValue != "42.00" {
		t.Fatalf("unexpected detail: %d fulfillments, total %s", len(detail.Fulfillments), detail.TotalValue)
	}
}

func TestRecordFulfillmentAtomic(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	sup := testutil.SeedSupplier(t, db, "S2", "orders@s2.test")
	tt := testutil.SeedToolType(t, db, "Chamfer tool", entity.PackagingPiece, 1)
	order := testutil.SeedOrder(t, db, "2025/03/002", entity.OrderStatusSent, sup, tt, "1.00", 5, 5, 5, 5, 5)

	var entries []FulfillmentEntry
	for i, p := range order.Positions {
		qty := 2
		if i == 2 {
			qty = 6
		}
		entries = append(entries, FulfillmentEntry{PositionID: p.ID, ReceivedQty: qty})
	}

	if _, err := svc.Order.RecordFulfillment(ctx, order.ID, &FulfillmentRequest{Entries: entries}, "tester"); !errors.Is(err, ErrOverDelivery) {
		t.Fatalf("expected OverDelivery, got %v", err)
	}

	var n int64
	db.Model(&entity.ToolInstance{}).Where("order_id = ?", order.ID).Count(&n)
	if n != 0 {
		t.Fatalf("instances persisted: %d", n)
	}
	db.Model(&entity.Fulfillment{}).Where("order_id = ?", order.ID).Count(&n)
	if n != 0 {
		t.Fatalf("fulfillments persisted: %d", n)
	}
	db.Model(&entity.OrderPosition{}).Where("order_id = ? AND delivered_qty > 0", order.ID).Count(&n)
	if n != 0 {
		t.Fatalf("positions updated: %d", n)
	}
	got, _ := svc.Order.GetOrder(ctx, order.ID)
	if got.Status != entity.OrderStatusSent {
		t.Fatalf("status changed to %s", got.Status)
	}
}

func TestRecordFulfillmentRequiresSentOrder(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	sup := testutil.SeedSupplier(t, db, "S3", "")
	tt := testutil.SeedToolType(t, db, "Saw blade", entity.PackagingPiece, 1)
	order := testutil.SeedOrder(t, db, "2025/03/003", entity.OrderStatusDraft, sup, tt, "9.99", 3)

	_, err := svc.Order.RecordFulfillment(ctx, order.ID, &FulfillmentRequest{
		Entries: []FulfillmentEntry{{PositionID: order.Positions[0].ID, ReceivedQty: 1}},
	}, "tester")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("draft order: got %v", err)
	}
	if _, err := svc.Order.RecordFulfillment(ctx, "missing", &FulfillmentRequest{}, "tester"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing order: got %v", err)
	}
	if _, err := svc.Order.SendOrder(ctx, order.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("supplier without email: got %v", err)
	}
}

type recordingMailer struct {
	mails []*OrderMail
	fail  bool
}

func (m *recordingMailer) SendOrder(ctx context.Context, mail *OrderMail) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.mails = append(m.mails, mail)
	return nil
}

func TestVerifyAndSendOrder(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()
	mailer := &recordingMailer{fail: true}
	svc.Order.mailer = mailer

	sup := testutil.SeedSupplier(t, db, "S4", "orders@s4.test")
	tt := testutil.SeedToolType(t, db, "Thread mill", entity.PackagingPiece, 1)
	order := testutil.SeedOrder(t, db, "2025/03/004", entity.OrderStatusDraft, sup, tt, "30.00", 2)

	if _, err := svc.Order.VerifyOrder(ctx, order.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.Order.VerifyOrder(ctx, order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second verify: got %v", err)
	}

	if _, err := svc.Order.SendOrder(ctx, order.ID); err == nil {
		t.Fatal("expected mail failure")
	}
	got, _ := svc.Order.GetOrder(ctx, order.ID)
	if got.Status != entity.OrderStatusVerified || got.SentAt != nil {
		t.Fatalf("failed send changed order: %s %v", got.Status, got.SentAt)
	}

	mailer.fail = false
	sent, err := svc.Order.SendOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Status != entity.OrderStatusSent || sent.SentAt == nil {
		t.Fatalf("unexpected order after send: %s %v", sent.Status, sent.SentAt)
	}
	if len(mailer.mails) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.mails))
	}
	mail := mailer.mails[0]
	if mail.To != "orders@s4.test" || mail.AttachmentName != "Order_2025-03-004.xlsx" || len(mail.Attachment) == 0 {
		t.Fatalf("unexpected mail %+v", mail)
	}
	if _, err := svc.Order.SendOrder(ctx, order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resend: got %v", err)
	}
}

func TestSetPackagingReceiptStock(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	sup := testutil.SeedSupplier(t, db, "S5", "orders@s5.test")
	tt := testutil.SeedToolType(t, db, "Insert box", entity.PackagingSet, 10)
	order := testutil.SeedOrder(t, db, "2025/03/005", entity.OrderStatusSent, sup, tt, "80.00", 2)
	posID := order.Positions[0].ID

	_, err := svc.Order.RecordFulfillment(ctx, order.ID, &FulfillmentRequest{
		Entries: []FulfillmentEntry{
			{PositionID: posID, ReceivedQty: 1},
			{PositionID: posID, ReceivedQty: 1},
		},
	}, "tester")
	if err != nil {
		t.Fatalf("fulfillment: %v", err)
	}

	summary, err := svc.Stock.ComputeStock(ctx, tt.ID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if summary.New != 20 || summary.Total != 20 {
		t.Fatalf("expected 20 new pieces, got %+v", summary)
	}
	if _, err := svc.Stock.ComputeStock(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing tool type: got %v", err)
	}
}

func TestCreateLocationsBulkIdempotent(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	created, err := svc.Reference.CreateLocationsBulk(ctx, "A", 2, 3)
	if err != nil {
		t.Fatalf("first bulk: %v", err)
	}
	if created != 6 {
		t.Fatalf("expected 6 created, got %d", created)
	}
	created, err = svc.Reference.CreateLocationsBulk(ctx, "A", 2, 3)
	if err != nil {
		t.Fatalf("second bulk: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected 0 created on repeat, got %d", created)
	}
	created, err = svc.Reference.CreateLocationsBulk(ctx, "A", 3, 3)
	if err != nil || created != 3 {
		t.Fatalf("grown grid: created=%d err=%v", created, err)
	}

	locations, _ := svc.Reference.ListLocations(ctx, "A")
	if len(locations) != 9 {
		t.Fatalf("expected 9 locations, got %d", len(locations))
	}
	if _, err := svc.Reference.CreateLocationsBulk(ctx, "", 1, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank cabinet: got %v", err)
	}
}

func TestCreateLocationsBulkLargestCabinet(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	created, err := svc.Reference.CreateLocationsBulk(ctx, "W", maxGridColumns, maxGridShelves)
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if created != maxGridColumns*maxGridShelves {
		t.Fatalf("created %d, want %d", created, maxGridColumns*maxGridShelves)
	}
	created, err = svc.Reference.CreateLocationsBulk(ctx, "W", maxGridColumns, maxGridShelves)
	if err != nil || created != 0 {
		t.Fatalf("repeat: created %d, err %v", created, err)
	}
	if _, err := svc.Reference.CreateLocationsBulk(ctx, "W", maxGridColumns+30, maxGridShelves+30); !errors.Is(err, ErrValidation) {
		t.Fatalf("oversized grid: got %v", err)
	}
}

func TestSuggestionsLifecycle(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	sup := testutil.SeedSupplier(t, db, "S6", "orders@s6.test")
	pieces := testutil.SeedToolType(t, db, "Center drill", entity.PackagingPiece, 1)
	sets := testutil.SeedToolType(t, db, "Inserts", entity.PackagingSet, 10)
	stocked := testutil.SeedToolType(t, db, "Spare collet", entity.PackagingPiece, 1)
	db.Model(&entity.ToolType{}).Where("id IN ?", []string{pieces.ID, sets.ID}).Update("last_supplier_id", sup.ID)
	db.Model(&entity.ToolType{}).Where("id = ?", stocked.ID).Update("max_stock", 1)

	for i := 0; i < 5; i++ {
		testutil.SeedInstance(t, db, pieces, entity.StateNew)
	}
	testutil.SeedInstance(t, db, pieces, entity.StateDamaged)
	testutil.SeedInstance(t, db, sets, entity.StateUsed)
	testutil.SeedInstance(t, db, stocked, entity.StateNew)
	testutil.SeedOrder(t, db, "2024/12/001", entity.OrderStatusCompleted, sup, pieces, "3.10", 1)

	created, err := svc.Replenishment.GenerateSuggestions(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(created))
	}
	byType := make(map[string]entity.ReplenishmentSuggestion)
	for _, s := range created {
		byType[s.ToolTypeID] = s
	}
	if got := byType[pieces.ID]; got.Quantity != 15 || !got.UnitPrice.Valid || got.UnitPrice.Decimal.StringFixed(2) != "3.10" {
		t.Fatalf("piece suggestion: %+v", got)
	}
	if got := byType[sets.ID]; got.Quantity != 1 {
		t.Fatalf("set suggestion quantity %d, want 1", got.Quantity)
	}

	again, err := svc.Replenishment.GenerateSuggestions(ctx)
	if err != nil || len(again) != 0 {
		t.Fatalf("second generate: %d created, err %v", len(again), err)
	}
	if _, err := svc.Replenishment.AddSuggestion(ctx, &AddSuggestionRequest{ToolTypeID: pieces.ID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("duplicate add: got %v", err)
	}

	if err := svc.Replenishment.RemoveSuggestion(ctx, byType[sets.ID].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	tt, _ := svc.Catalog.GetToolType(ctx, sets.ID)
	if tt.MaxStock != 10 {
		t.Fatalf("max stock reset to %d, want 10", tt.MaxStock)
	}
	again, _ = svc.Replenishment.GenerateSuggestions(ctx)
	if len(again) != 0 {
		t.Fatalf("removed suggestion came back")
	}

	orders, err := svc.Replenishment.FinalizeSuggestions(ctx)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Positions) != 1 {
		t.Fatalf("unexpected orders %+v", orders)
	}
	wantPrefix := time.Now().Format("2006/01") + "/"
	if !strings.HasPrefix(orders[0].Number, wantPrefix) || orders[0].Status != entity.OrderStatusDraft {
		t.Fatalf("unexpected order %s %s", orders[0].Number, orders[0].Status)
	}
	left, _ := svc.Replenishment.ListSuggestions(ctx)
	if len(left) != 0 {
		t.Fatalf("suggestions left: %d", len(left))
	}
}

func TestRemovedSuggestionForEmptyToolTypeStaysRemoved(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	empty := testutil.SeedToolType(t, db, "Thread mill", entity.PackagingPiece, 1)
	testutil.SeedInstance(t, db, empty, entity.StateDamaged)

	created, err := svc.Replenishment.GenerateSuggestions(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 1 || created[0].Quantity != 20 {
		t.Fatalf("expected one suggestion for 20, got %+v", created)
	}

	if err := svc.Replenishment.RemoveSuggestion(ctx, created[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	tt, _ := svc.Catalog.GetToolType(ctx, empty.ID)
	if tt.MaxStock != 0 {
		t.Fatalf("max stock reset to %d, want 0", tt.MaxStock)
	}

	again, err := svc.Replenishment.GenerateSuggestions(ctx)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("removed suggestion came back with quantity %d", again[0].Quantity)
	}
}

func TestFinalizeNumbersSequentially(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	prefix := time.Now().Format("2006/01") + "/"
	s1 := testutil.SeedSupplier(t, db, "A1", "a1@test")
	s2 := testutil.SeedSupplier(t, db, "A2", "a2@test")
	t1 := testutil.SeedToolType(t, db, "Tool one", entity.PackagingPiece, 1)
	t2 := testutil.SeedToolType(t, db, "Tool two", entity.PackagingPiece, 1)
	testutil.SeedOrder(t, db, prefix+"007", entity.OrderStatusSent, s1, t1, "1.00", 1)

	for _, req := range []*AddSuggestionRequest{
		{ToolTypeID: t1.ID, SupplierID: &s1.ID, Quantity: 3},
		{ToolTypeID: t2.ID, SupplierID: &s2.ID, Quantity: 4},
	} {
		if _, err := svc.Replenishment.AddSuggestion(ctx, req); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	orders, err := svc.Replenishment.FinalizeSuggestions(ctx)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	numbers := map[string]bool{}
	for _, o := range orders {
		numbers[o.Number] = true
	}
	if len(orders) != 2 || !numbers[prefix+"008"] || !numbers[prefix+"009"] {
		t.Fatalf("unexpected numbers %v", numbers)
	}
}

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestInvoiceFileRoundTrip(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	if _, err := svc.Invoice.UploadInvoiceFile(ctx, "x", strings.NewReader("x"), 1, "a.pdf", "application/pdf"); !errors.Is(err, ErrValidation) {
		t.Fatalf("no storage: got %v", err)
	}

	store := &memStore{objects: map[string][]byte{}}
	svc.Invoice.files = store

	sup := testutil.SeedSupplier(t, db, "F1", "")
	inv, err := svc.Invoice.CreateInvoice(ctx, &CreateInvoiceRequest{
		Number:     "FV/1/2025",
		IssuedOn:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SupplierID: sup.ID,
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if _, _, err := svc.Invoice.DownloadInvoiceFile(ctx, inv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("download before upload: got %v", err)
	}

	content := "%PDF-1.4 invoice"
	updated, err := svc.Invoice.UploadInvoiceFile(ctx, inv.ID, strings.NewReader(content), int64(len(content)), "scan.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if updated.FileName != "scan.pdf" || !strings.HasSuffix(updated.FileKey, inv.ID+".pdf") {
		t.Fatalf("unexpected file fields %q %q", updated.FileName, updated.FileKey)
	}

	rc, _, err := svc.Invoice.DownloadInvoiceFile(ctx, inv.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != content {
		t.Fatalf("downloaded %q", data)
	}

	settled, err := svc.Invoice.SetInvoiceSettled(ctx, inv.ID, true)
	if err != nil || !settled.Settled {
		t.Fatalf("settle: %v %v", settled, err)
	}
}
