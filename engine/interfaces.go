package engine

import (
	"context"

	"wellkit/core"
)

// StandingStore abstracts persistence for user standing. Implementations
// live under adapters/ and must be safe for concurrent use.
type StandingStore interface {
	// AddPoints credits delta points and returns the updated standing with
	// the level recomputed.
	AddPoints(ctx context.Context, user core.UserID, delta int64) (core.Standing, error)
	// Put replaces the stored standing.
	Put(ctx context.Context, st core.Standing) error
	// Get returns the stored standing, or a zero-point standing for an
	// unknown user.
	Get(ctx context.Context, user core.UserID) (core.Standing, error)
	// Clear removes the user's standing.
	Clear(ctx context.Context, user core.UserID) error
}

// BenefitsSource yields a user's benefit projection and processes claims.
// Two implementations exist: the remote client (authoritative) and the local
// derivation over the last known standing (fallback). The reconciler selects
// between them per call.
type BenefitsSource interface {
	Benefits(ctx context.Context, user core.UserID) (core.UserBenefits, error)
	Claim(ctx context.Context, user core.UserID, benefitID string) (core.ClaimResponse, error)
}

// InsuranceSource yields the plan catalog, the user's enrollment, and the
// computed discount. Enrollment is authoritative-only: there is no local
// implementation of Enroll.
type InsuranceSource interface {
	Plans(ctx context.Context) ([]core.InsurancePlan, error)
	CurrentPlan(ctx context.Context, user core.UserID) (*core.UserInsurance, error)
	Discount(ctx context.Context, user core.UserID) (*core.DiscountCalculation, error)
	Enroll(ctx context.Context, user core.UserID, planID string) (string, error)
}

// PointsRemote syncs point awards to the backend.
type PointsRemote interface {
	AddPoints(ctx context.Context, user core.UserID, delta int64) (core.Standing, error)
}
