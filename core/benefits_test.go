package core

import (
	"errors"
	"testing"
	"time"
)

func TestDerivePartitionsEveryBenefitOnce(t *testing.T) {
	cat := DefaultCatalog()
	claimed := map[string]time.Time{"welcome-kit": time.Now().UTC()}
	ub := cat.Derive(450, 3, claimed)

	seen := map[string]int{}
	for _, b := range ub.Unlocked {
		seen[b.ID]++
	}
	for _, b := range ub.Available {
		seen[b.ID]++
	}
	for _, b := range ub.Claimed {
		seen[b.ID]++
	}
	if len(seen) != len(cat) {
		t.Fatalf("partition covers %d of %d benefits", len(seen), len(cat))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("benefit %s appears %d times", id, n)
		}
	}
	if len(ub.Claimed) != 1 || ub.Claimed[0].ID != "welcome-kit" {
		t.Fatalf("claimed partition wrong: %+v", ub.Claimed)
	}
	if ub.TotalSavings != 25 {
		t.Fatalf("total savings = %v, want 25", ub.TotalSavings)
	}
}

func TestDeriveUnlockRequiresBothGates(t *testing.T) {
	cat := Catalog{{ID: "x", MinPoints: 100, MinLevel: 4, Value: 10}}
	// points gate met, level gate not
	ub := cat.Derive(450, 3, nil)
	if len(ub.Unlocked) != 0 || len(ub.Available) != 1 {
		t.Fatalf("benefit with unmet level gate must stay available: %+v", ub)
	}
}

func TestNextBenefitDeterministic(t *testing.T) {
	cat := Catalog{
		{ID: "a", MinPoints: 500, MinLevel: 4},
		{ID: "b", MinPoints: 500, MinLevel: 3},
		{ID: "c", MinPoints: 400, MinLevel: 5},
	}
	next, ok := cat.Next(300, 3)
	if !ok || next.ID != "c" {
		t.Fatalf("next = %+v, want c (smallest MinPoints)", next)
	}
	// tie on MinPoints resolved by smaller MinLevel
	next, _ = Catalog{cat[0], cat[1]}.Next(300, 2)
	if next.ID != "b" {
		t.Fatalf("tie-break picked %s, want b", next.ID)
	}
}

func TestPointsToNext(t *testing.T) {
	cat := DefaultCatalog()
	if got := cat.PointsToNext(450, 3); got != 150 {
		t.Fatalf("PointsToNext = %d, want 150", got)
	}
	if got := cat.PointsToNext(5_000, 5); got != 0 {
		t.Fatalf("all unlocked should yield 0, got %d", got)
	}
}

func TestClaimOutcomes(t *testing.T) {
	cat := DefaultCatalog()
	claimed := map[string]time.Time{}

	// below threshold
	if _, err := cat.Claim(300, 3, claimed, "premium-credit"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("want ErrNotEligible, got %v", err)
	}

	b, err := cat.Claim(650, 4, claimed, "premium-credit")
	if err != nil || !b.Claimed || b.ClaimedAt == nil {
		t.Fatalf("claim failed: %+v %v", b, err)
	}
	claimed[b.ID] = *b.ClaimedAt

	// second attempt must report AlreadyClaimed, not double-credit
	if _, err := cat.Claim(650, 4, claimed, "premium-credit"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("want ErrAlreadyClaimed, got %v", err)
	}
	ub := cat.Derive(650, 4, claimed)
	if ub.TotalSavings != b.Value {
		t.Fatalf("savings credited %v times value", ub.TotalSavings/b.Value)
	}
}

func TestClaimUnknownBenefit(t *testing.T) {
	if _, err := DefaultCatalog().Claim(10_000, 5, nil, "no-such-benefit"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("unknown id should be NotEligible, got %v", err)
	}
}
