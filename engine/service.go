package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wellkit/core"
)

// RewardsService is the authoritative side of the rewards domain: it owns
// the standing store, the benefit catalog with its claim ledger, and the
// insurance plan book. The HTTP API exposes it; reconcilers on the consuming
// side talk to it through the remote client. It satisfies BenefitsSource and
// InsuranceSource, so tests can also wire it in-process.
type RewardsService struct {
	store   StandingStore
	catalog core.Catalog
	bus     *EventBus

	mu          sync.Mutex
	claims      map[core.UserID]map[string]time.Time
	plans       []core.InsurancePlan
	enrollments map[core.UserID]core.UserInsurance
}

func NewRewardsService(store StandingStore, bus *EventBus, catalog core.Catalog, plans []core.InsurancePlan) *RewardsService {
	if store == nil || bus == nil {
		panic("NewRewardsService requires non-nil store and bus")
	}
	if catalog == nil {
		catalog = core.DefaultCatalog()
	}
	if plans == nil {
		plans = DefaultPlans()
	}
	return &RewardsService{
		store:       store,
		catalog:     catalog,
		bus:         bus,
		claims:      map[core.UserID]map[string]time.Time{},
		plans:       plans,
		enrollments: map[core.UserID]core.UserInsurance{},
	}
}

// DefaultPlans returns the built-in insurance plan catalog.
func DefaultPlans() []core.InsurancePlan {
	return []core.InsurancePlan{
		{ID: "basic", Name: "Basic Care", Premium: 89.99, Attributes: map[string]string{"coverage": "essential"}},
		{ID: "plus", Name: "Care Plus", Premium: 149.99, Attributes: map[string]string{"coverage": "extended", "dental": "yes"}},
		{ID: "family", Name: "Family Shield", Premium: 239.99, Attributes: map[string]string{"coverage": "full", "dependents": "4"}},
	}
}

// Subscribe convenience method.
func (s *RewardsService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *RewardsService) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

// AddPoints credits delta points, publishing points_added and, when the
// level table says so, level_up.
func (s *RewardsService) AddPoints(ctx context.Context, user core.UserID, delta int64) (core.Standing, error) {
	if delta <= 0 {
		return core.Standing{}, errors.New("delta must be positive")
	}
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.Standing{}, err
	}
	before, err := s.store.Get(ctx, normalized)
	if err != nil {
		return core.Standing{}, err
	}
	after, err := s.store.AddPoints(ctx, normalized, delta)
	if err != nil {
		return core.Standing{}, err
	}
	s.bus.Publish(ctx, core.NewPointsAdded(normalized, delta, after.Points))
	if after.Level > before.Level {
		s.bus.Publish(ctx, core.NewLevelUp(normalized, after.Level))
	}
	return after, nil
}

func (s *RewardsService) Standing(ctx context.Context, user core.UserID) (core.Standing, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.Standing{}, err
	}
	return s.store.Get(ctx, normalized)
}

// Benefits derives the projection from the current standing and claim ledger.
func (s *RewardsService) Benefits(ctx context.Context, user core.UserID) (core.UserBenefits, error) {
	st, err := s.Standing(ctx, user)
	if err != nil {
		return core.UserBenefits{}, err
	}
	s.mu.Lock()
	claimed := cloneClaims(s.claims[st.UserID])
	s.mu.Unlock()
	return s.catalog.Derive(st.Points, st.Level, claimed), nil
}

// Claim validates and records a claim. Eligibility failures come back as an
// unsuccessful ClaimResponse together with the sentinel error; the claim
// ledger guarantees savings are credited at most once per benefit.
func (s *RewardsService) Claim(ctx context.Context, user core.UserID, benefitID string) (core.ClaimResponse, error) {
	if err := core.ValidateBenefitID(benefitID); err != nil {
		return core.ClaimResponse{Success: false, Message: err.Error()}, fmt.Errorf("%w: %s", core.ErrRemoteRejected, err)
	}
	st, err := s.Standing(ctx, user)
	if err != nil {
		return core.ClaimResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := s.claims[st.UserID]
	b, err := s.catalog.Claim(st.Points, st.Level, claimed, benefitID)
	if err != nil {
		return core.ClaimResponse{Success: false, Message: err.Error()}, err
	}
	if claimed == nil {
		claimed = map[string]time.Time{}
		s.claims[st.UserID] = claimed
	}
	claimed[b.ID] = *b.ClaimedAt
	s.bus.Publish(ctx, core.NewBenefitClaimed(st.UserID, b.ID, b.Value))
	return core.ClaimResponse{Success: true, Message: "benefit claimed", Benefit: &b}, nil
}

func (s *RewardsService) Plans(_ context.Context) ([]core.InsurancePlan, error) {
	out := make([]core.InsurancePlan, len(s.plans))
	copy(out, s.plans)
	return out, nil
}

// CurrentPlan returns nil when the user has no enrollment.
func (s *RewardsService) CurrentPlan(ctx context.Context, user core.UserID) (*core.UserInsurance, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if enr, ok := s.enrollments[normalized]; ok {
		cp := enr
		return &cp, nil
	}
	return nil, nil
}

// Discount computes the discount from the current standing so the basis it
// records is never stale.
func (s *RewardsService) Discount(ctx context.Context, user core.UserID) (*core.DiscountCalculation, error) {
	st, err := s.Standing(ctx, user)
	if err != nil {
		return nil, err
	}
	d := core.DiscountFor(st.Level, st.Points)
	return &d, nil
}

// Enroll binds the user to a plan. Unknown plans are a business-rule
// rejection, not an availability failure.
func (s *RewardsService) Enroll(ctx context.Context, user core.UserID, planID string) (string, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return "", err
	}
	var plan *core.InsurancePlan
	for i := range s.plans {
		if s.plans[i].ID == planID {
			plan = &s.plans[i]
			break
		}
	}
	if plan == nil {
		return "", fmt.Errorf("%w: unknown plan %q", core.ErrRemoteRejected, planID)
	}
	s.mu.Lock()
	s.enrollments[normalized] = core.UserInsurance{UserID: normalized, PlanID: plan.ID, EnrolledAt: time.Now().UTC()}
	s.mu.Unlock()
	return fmt.Sprintf("enrolled in %s", plan.Name), nil
}

func (s *RewardsService) Close() { s.bus.Close() }

func cloneClaims(in map[string]time.Time) map[string]time.Time {
	if in == nil {
		return nil
	}
	out := make(map[string]time.Time, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ BenefitsSource  = (*RewardsService)(nil)
	_ InsuranceSource = (*RewardsService)(nil)
)
