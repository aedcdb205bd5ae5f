package service

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestLocationGrid(t *testing.T) {
	grid, err := LocationGrid(" A ", 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(grid))
	}
	seen := make(map[string]bool)
	for _, l := range grid {
		seen[l.String()] = true
	}
	for _, want := range []string{"A/1/1", "A/1/2", "A/1/3", "A/2/1", "A/2/2", "A/2/3"} {
		if !seen[want] {
			t.Fatalf("missing slot %s in %v", want, seen)
		}
	}
}

func TestLocationGridRejectsBadInput(t *testing.T) {
	cases := []struct {
		cabinet          string
		columns, shelves int
	}{
		{"", 2, 3},
		{"  ", 2, 3},
		{"A", 0, 3},
		{"A", 2, 0},
		{"A", -1, 1},
		{"A", maxGridColumns + 1, 1},
		{"A", 1, maxGridShelves + 1},
		{"A", math.MaxInt32, math.MaxInt32},
	}
	for _, c := range cases {
		if _, err := LocationGrid(c.cabinet, c.columns, c.shelves); !errors.Is(err, ErrValidation) {
			t.Fatalf("LocationGrid(%q, %d, %d): expected validation error, got %v", c.cabinet, c.columns, c.shelves, err)
		}
	}
}

func TestLocationGridLargestCabinet(t *testing.T) {
	grid, err := LocationGrid("Z", maxGridColumns, maxGridShelves)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid) != maxGridColumns*maxGridShelves {
		t.Fatalf("expected %d slots, got %d", maxGridColumns*maxGridShelves, len(grid))
	}
}

func TestInvoiceObjectKey(t *testing.T) {
	now := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	if got := InvoiceObjectKey("abc", "scan.PDF", now); got != "invoices/2025/03/04/abc.pdf" {
		t.Fatalf("got %q", got)
	}
	if got := InvoiceObjectKey("abc", "noext", now); got != "invoices/2025/03/04/abc" {
		t.Fatalf("got %q", got)
	}
}
