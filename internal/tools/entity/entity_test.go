package entity

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 {
		t.Fatalf("expected 32 chars, got %d (%s)", len(a), a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
}

func TestIsDamaged(t *testing.T) {
	cases := map[string]bool{
		StateNew:             false,
		StateUsed:            false,
		StateDamaged:         true,
		StateDamagedForRegen: true,
	}
	for state, want := range cases {
		if got := IsDamaged(state); got != want {
			t.Fatalf("IsDamaged(%s) = %v, want %v", state, got, want)
		}
	}
}

func TestCheckoutRecordUsageDuration(t *testing.T) {
	issued := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := issued.Add(5 * time.Hour)

	open := &CheckoutRecord{IssuedAt: issued}
	if !open.IsOpen() {
		t.Fatal("expected record without return time to be open")
	}
	if got := open.UsageDuration(now); got != 5*time.Hour {
		t.Fatalf("open duration = %v, want 5h", got)
	}

	returned := issued.Add(90 * time.Minute)
	closed := &CheckoutRecord{IssuedAt: issued, ReturnedAt: &returned}
	if closed.IsOpen() {
		t.Fatal("expected returned record to be closed")
	}
	if got := closed.UsageDuration(now); got != 90*time.Minute {
		t.Fatalf("closed duration = %v, want 90m", got)
	}

	if got := open.UsageDuration(issued.Add(-time.Minute)); got != 0 {
		t.Fatalf("expected clock skew to clamp to 0, got %v", got)
	}
}

func TestOrderTotalValueAndRealization(t *testing.T) {
	order := &Order{
		Positions: []OrderPosition{
			{RequestedQty: 3, UnitPrice: decimal.NewNullDecimal(decimal.RequireFromString("12.50")), FullyRealized: true},
			{RequestedQty: 2, FullyRealized: false},
			{RequestedQty: 4, UnitPrice: decimal.NewNullDecimal(decimal.RequireFromString("0.25")), FullyRealized: true},
		},
	}

	if got := order.TotalValue(); !got.Equal(decimal.RequireFromString("38.50")) {
		t.Fatalf("TotalValue = %s, want 38.50", got)
	}
	if order.IsFullyRealized() {
		t.Fatal("expected order with an open position not to be fully realized")
	}

	order.Positions[1].FullyRealized = true
	if !order.IsFullyRealized() {
		t.Fatal("expected order to be fully realized")
	}

	if (&Order{}).IsFullyRealized() {
		t.Fatal("empty order must not count as fully realized")
	}
}

func TestLocationString(t *testing.T) {
	l := Location{Cabinet: "A", Column: "2", Shelf: "3"}
	if l.String() != "A/2/3" {
		t.Fatalf("unexpected location label %q", l.String())
	}
}

// Foreign keys are never created, so cascade rules in tags would not apply.
func TestRelationsDeclareNoConstraints(t *testing.T) {
	models := []interface{}{
		Supplier{}, Employee{}, Machine{}, Category{}, Subcategory{}, Location{},
		PurchaseInvoice{}, ToolType{}, ToolInstance{}, CheckoutRecord{}, DamageReport{},
		Order{}, OrderPosition{}, Fulfillment{}, FulfillmentPosition{}, ReplenishmentSuggestion{},
	}
	for _, m := range models {
		typ := reflect.TypeOf(m)
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if strings.Contains(f.Tag.Get("gorm"), "constraint:") {
				t.Fatalf("%s.%s declares a constraint: %s", typ.Name(), f.Name, f.Tag.Get("gorm"))
			}
		}
	}
}

// A zero threshold must reach the database instead of a column default.
func TestStockThresholdsHaveNoColumnDefault(t *testing.T) {
	typ := reflect.TypeOf(ToolType{})
	for _, name := range []string{"MinStock", "MaxStock"} {
		f, _ := typ.FieldByName(name)
		if strings.Contains(f.Tag.Get("gorm"), "default:") {
			t.Fatalf("%s has a column default: %s", name, f.Tag.Get("gorm"))
		}
	}
}
