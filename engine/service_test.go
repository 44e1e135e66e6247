package engine

import (
	"context"
	"errors"
	"testing"

	mem "wellkit/adapters/memory"
	"wellkit/core"
)

func newTestService() *RewardsService {
	return NewRewardsService(mem.New(), NewEventBus(DispatchSync), nil, nil)
}

func TestAddPointsPublishesLevelUp(t *testing.T) {
	svc := newTestService()

	levelUps := 0
	svc.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { levelUps++ })

	st, err := svc.AddPoints(context.Background(), core.UserID("user1"), 350)
	if err != nil {
		t.Fatal(err)
	}
	if st.Points != 350 || st.Level != 3 {
		t.Fatalf("standing = %+v", st)
	}
	if levelUps != 1 {
		t.Fatalf("level up events = %d, want 1", levelUps)
	}

	// same level, no second level-up
	if _, err := svc.AddPoints(context.Background(), core.UserID("user1"), 10); err != nil {
		t.Fatal(err)
	}
	if levelUps != 1 {
		t.Fatalf("level up emitted without a level change")
	}
}

func TestServiceClaimLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := core.UserID("user1")

	if _, err := svc.AddPoints(ctx, user, 350); err != nil {
		t.Fatal(err)
	}

	// not eligible yet
	resp, err := svc.Claim(ctx, user, "premium-credit")
	if !errors.Is(err, core.ErrNotEligible) || resp.Success {
		t.Fatalf("want NotEligible, got %v %+v", err, resp)
	}

	resp, err = svc.Claim(ctx, user, "gym-discount")
	if err != nil || !resp.Success {
		t.Fatalf("claim failed: %v %+v", err, resp)
	}

	resp, err = svc.Claim(ctx, user, "gym-discount")
	if !errors.Is(err, core.ErrAlreadyClaimed) || resp.Success {
		t.Fatalf("want AlreadyClaimed, got %v %+v", err, resp)
	}

	ub, err := svc.Benefits(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if len(ub.Claimed) != 1 || ub.TotalSavings != 120 {
		t.Fatalf("benefits after claim: %+v", ub)
	}
}

func TestServiceEnroll(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, "user1", "no-such-plan"); !errors.Is(err, core.ErrRemoteRejected) {
		t.Fatalf("unknown plan should be rejected, got %v", err)
	}

	msg, err := svc.Enroll(ctx, "user1", "plus")
	if err != nil || msg == "" {
		t.Fatalf("enroll: %q %v", msg, err)
	}
	enr, err := svc.CurrentPlan(ctx, "user1")
	if err != nil || enr == nil || enr.PlanID != "plus" {
		t.Fatalf("current plan: %+v %v", enr, err)
	}
}

func TestServiceDiscountTracksStanding(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	d, err := svc.Discount(ctx, "user1")
	if err != nil || d.Percentage != 0 {
		t.Fatalf("fresh user discount: %+v %v", d, err)
	}

	if _, err := svc.AddPoints(ctx, "user1", 650); err != nil {
		t.Fatal(err)
	}
	d, err = svc.Discount(ctx, "user1")
	if err != nil || d.Percentage != 15 || d.BasisLevel != 4 {
		t.Fatalf("discount after points: %+v %v", d, err)
	}
}
