package engine

import (
	"context"
	"sync"

	"wellkit/core"
)

// InsuranceSnapshot is the reconciled insurance view. Current and Discount
// are nil when their fetch failed or the user has no enrollment; Plans is
// the only load-fatal dependency.
type InsuranceSnapshot struct {
	State    LoadState
	Plans    []core.InsurancePlan
	Current  *core.UserInsurance
	Discount *core.DiscountCalculation
	Err      error
}

// InsuranceReconciler loads the plan catalog, the user's enrollment, and the
// discount in parallel with per-fetch failure isolation. Enrollment has no
// local fallback: it is an authoritative action and its errors are surfaced
// verbatim.
type InsuranceReconciler struct {
	source InsuranceSource
	user   core.UserID

	mu   sync.Mutex
	snap InsuranceSnapshot
	gen  uint64
}

func NewInsuranceReconciler(source InsuranceSource, user core.UserID) *InsuranceReconciler {
	return &InsuranceReconciler{source: source, user: user, snap: InsuranceSnapshot{State: StateIdle}}
}

// Snapshot returns the last published state.
func (r *InsuranceReconciler) Snapshot() InsuranceSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Load issues the three fetches concurrently. A failed current-plan or
// discount fetch resolves to nil; a failed plans fetch fails the load.
func (r *InsuranceReconciler) Load(ctx context.Context) (InsuranceSnapshot, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.snap.State = StateLoading
	r.mu.Unlock()

	var (
		wg       sync.WaitGroup
		plans    []core.InsurancePlan
		plansErr error
		current  *core.UserInsurance
		discount *core.DiscountCalculation
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		plans, plansErr = r.source.Plans(ctx)
	}()
	go func() {
		defer wg.Done()
		// failure tolerated: enrollment is optional
		if cp, err := r.source.CurrentPlan(ctx, r.user); err == nil {
			current = cp
		}
	}()
	go func() {
		defer wg.Done()
		// failure tolerated: discount is optional
		if d, err := r.source.Discount(ctx, r.user); err == nil {
			discount = d
		}
	}()
	wg.Wait()

	snap := InsuranceSnapshot{State: StateReady, Plans: plans, Current: current, Discount: discount}
	if plansErr != nil {
		snap = InsuranceSnapshot{State: StateErrored, Err: plansErr}
	}

	r.mu.Lock()
	if gen == r.gen {
		r.snap = snap
	}
	r.mu.Unlock()
	return snap, plansErr
}

// Enroll calls the authoritative enrollment and refreshes on success. The
// refresh is ordered after the enrollment's completion.
func (r *InsuranceReconciler) Enroll(ctx context.Context, planID string) (string, error) {
	msg, err := r.source.Enroll(ctx, r.user, planID)
	if err != nil {
		return "", err
	}
	_, _ = r.Load(ctx)
	return msg, nil
}

// CalculateSavings projects a plan's premium through the loaded discount.
// Without a loaded discount it returns 0: it never guesses a percentage.
func (r *InsuranceReconciler) CalculateSavings(plan core.InsurancePlan) float64 {
	r.mu.Lock()
	d := r.snap.Discount
	r.mu.Unlock()
	if d == nil {
		return 0
	}
	return core.Savings(plan.Premium, d.Percentage)
}
