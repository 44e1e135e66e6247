package core

import (
	"math"
	"testing"
)

func TestAddSafe(t *testing.T) {
	if v, err := AddSafe(10, 5); err != nil || v != 15 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := AddSafe(math.MaxInt64, 1); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID(" Alice ")
	if err != nil || id != "alice" {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := NormalizeUserID("   "); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestNewStandingRecomputesLevel(t *testing.T) {
	st := NewStanding("alice", 450, 3)
	if st.Level != 3 {
		t.Fatalf("level = %d, want 3", st.Level)
	}
	if NewStanding("alice", -10, 0).Points != 0 {
		t.Fatal("negative points should clamp to zero")
	}
}

func TestValidateBenefitID(t *testing.T) {
	if err := ValidateBenefitID("free-checkup"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateBenefitID("bad benefit"); err == nil {
		t.Fatalf("expected invalid benefit err")
	}
}

func TestUserBenefitsClone(t *testing.T) {
	orig := UserBenefits{Unlocked: []Benefit{{ID: "a"}}, TotalSavings: 5}
	cp := orig.Clone()
	cp.Unlocked[0].ID = "b"
	if orig.Unlocked[0].ID != "a" {
		t.Fatal("clone aliased the original")
	}
}
