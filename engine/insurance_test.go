package engine

import (
	"context"
	"errors"
	"testing"

	"wellkit/core"
)

// fakeInsurance is a scriptable InsuranceSource.
type fakeInsurance struct {
	plans       []core.InsurancePlan
	plansErr    error
	current     *core.UserInsurance
	currentErr  error
	discount    *core.DiscountCalculation
	discountErr error
	enrollMsg   string
	enrollErr   error
	enrolls     int
}

func (f *fakeInsurance) Plans(context.Context) ([]core.InsurancePlan, error) {
	return f.plans, f.plansErr
}

func (f *fakeInsurance) CurrentPlan(context.Context, core.UserID) (*core.UserInsurance, error) {
	return f.current, f.currentErr
}

func (f *fakeInsurance) Discount(context.Context, core.UserID) (*core.DiscountCalculation, error) {
	return f.discount, f.discountErr
}

func (f *fakeInsurance) Enroll(context.Context, core.UserID, string) (string, error) {
	f.enrolls++
	return f.enrollMsg, f.enrollErr
}

func TestInsuranceLoadToleratesOptionalFailures(t *testing.T) {
	src := &fakeInsurance{
		plans:       DefaultPlans(),
		currentErr:  core.ErrNetworkUnavailable,
		discountErr: core.ErrNetworkUnavailable,
	}
	r := NewInsuranceReconciler(src, "alice")

	snap, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("optional failures must not fail the load: %v", err)
	}
	if snap.State != StateReady || len(snap.Plans) != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Current != nil || snap.Discount != nil {
		t.Fatalf("failed optional fetches should resolve nil: %+v", snap)
	}
}

func TestInsuranceLoadFailsWithoutPlans(t *testing.T) {
	src := &fakeInsurance{plansErr: core.ErrNetworkUnavailable}
	r := NewInsuranceReconciler(src, "alice")

	snap, err := r.Load(context.Background())
	if !errors.Is(err, core.ErrNetworkUnavailable) {
		t.Fatalf("plans failure must fail the load, got %v", err)
	}
	if snap.State != StateErrored {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestEnrollRefreshesOnSuccess(t *testing.T) {
	src := &fakeInsurance{plans: DefaultPlans(), enrollMsg: "enrolled in Care Plus"}
	r := NewInsuranceReconciler(src, "alice")

	msg, err := r.Enroll(context.Background(), "plus")
	if err != nil || msg != "enrolled in Care Plus" {
		t.Fatalf("enroll: %q %v", msg, err)
	}
	if r.Snapshot().State != StateReady {
		t.Fatal("enroll should refresh the snapshot")
	}
}

func TestEnrollErrorSurfacedVerbatim(t *testing.T) {
	wantErr := errors.New("not eligible for this plan")
	src := &fakeInsurance{enrollErr: wantErr}
	r := NewInsuranceReconciler(src, "alice")

	_, err := r.Enroll(context.Background(), "plus")
	if !errors.Is(err, wantErr) {
		t.Fatalf("error rewritten: %v", err)
	}
	if r.Snapshot().State != StateIdle {
		t.Fatal("failed enroll must not refresh")
	}
}

func TestCalculateSavings(t *testing.T) {
	src := &fakeInsurance{plans: DefaultPlans()}
	r := NewInsuranceReconciler(src, "alice")
	plan := core.InsurancePlan{ID: "plus", Premium: 149.99}

	// nothing loaded yet: never guess a discount
	if got := r.CalculateSavings(plan); got != 0 {
		t.Fatalf("savings before load = %v, want 0", got)
	}

	src.discount = &core.DiscountCalculation{Percentage: 10, BasisLevel: 3, BasisPoints: 450}
	if _, err := r.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := r.CalculateSavings(plan); got != 15.00 {
		t.Fatalf("savings = %v, want 15.00", got)
	}
}
