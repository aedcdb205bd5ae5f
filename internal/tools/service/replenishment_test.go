package service

import (
	"testing"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
)

func TestSuggestedQuantity(t *testing.T) {
	tests := []struct {
		name      string
		max       int
		total     int
		packaging string
		qpp       int
		want      int
	}{
		{"pieces short", 20, 12, entity.PackagingPiece, 1, 8},
		{"enough stock", 20, 20, entity.PackagingPiece, 1, 0},
		{"over stock", 20, 25, entity.PackagingPiece, 1, 0},
		{"zero max never reorders", 0, 0, entity.PackagingPiece, 1, 0},
		{"zero max sets", 0, 0, entity.PackagingSet, 10, 0},
		{"sets rounded up", 20, 5, entity.PackagingSet, 10, 2},
		{"sets exact", 20, 0, entity.PackagingSet, 10, 2},
		{"one piece short of a set", 20, 19, entity.PackagingSet, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestedQuantity(tt.max, tt.total, tt.packaging, tt.qpp); got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextOrderNumber(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	if got := NextOrderNumber(now, nil); got != "2025/03/001" {
		t.Fatalf("first of month: got %s", got)
	}

	existing := []string{"2025/03/001", "2025/03/009", "2025/03/010", "2025/02/044", "2025/03/bad"}
	if got := NextOrderNumber(now, existing); got != "2025/03/011" {
		t.Fatalf("got %s, want 2025/03/011", got)
	}

	if got := NextOrderNumber(now, []string{"2025/03/999"}); got != "2025/03/1000" {
		t.Fatalf("got %s", got)
	}
}
