package core

import "testing"

func TestDiscountMonotoneInLevel(t *testing.T) {
	prev := -1.0
	for lvl := 1; lvl <= MaxLevel; lvl++ {
		d := DiscountFor(lvl, 500)
		if d.Percentage < prev {
			t.Fatalf("discount decreased at level %d: %v -> %v", lvl, prev, d.Percentage)
		}
		if d.Percentage < 0 || d.Percentage > 100 {
			t.Fatalf("discount out of range: %v", d.Percentage)
		}
		prev = d.Percentage
	}
}

func TestDiscountRecordsBasis(t *testing.T) {
	d := DiscountFor(3, 450)
	if d.BasisLevel != 3 || d.BasisPoints != 450 {
		t.Fatalf("basis not recorded: %+v", d)
	}
}

func TestDiscountClampsLevel(t *testing.T) {
	if DiscountFor(0, 0).Percentage != DiscountFor(1, 0).Percentage {
		t.Fatal("level below 1 should clamp")
	}
	if DiscountFor(99, 0).Percentage != DiscountFor(MaxLevel, 0).Percentage {
		t.Fatal("level above max should clamp")
	}
}

func TestSavings(t *testing.T) {
	if got := Savings(120, 0); got != 0 {
		t.Fatalf("Savings(120,0) = %v", got)
	}
	if got := Savings(120, 100); got != 120 {
		t.Fatalf("Savings(120,100) = %v", got)
	}
	if got := Savings(99.99, 10); got != 10.00 {
		t.Fatalf("Savings(99.99,10) = %v, want 10.00", got)
	}
	if got := Savings(33.33, 15); got != 5.00 {
		t.Fatalf("Savings(33.33,15) = %v, want 5.00", got)
	}
}
