package engine

import (
	"context"
	"sync"
	"time"

	"wellkit/core"
)

// LocalBenefits derives benefits from the last known standing when the
// backend is unreachable. It keeps its own claim ledger so offline claims
// are retained and stay idempotent across retries. It is the fallback
// implementation of BenefitsSource; the reconciler decides when to use it.
type LocalBenefits struct {
	store   StandingStore
	catalog core.Catalog

	mu     sync.Mutex
	claims map[core.UserID]map[string]time.Time
}

func NewLocalBenefits(store StandingStore, catalog core.Catalog) *LocalBenefits {
	if catalog == nil {
		catalog = core.DefaultCatalog()
	}
	return &LocalBenefits{store: store, catalog: catalog, claims: map[core.UserID]map[string]time.Time{}}
}

func (l *LocalBenefits) Benefits(ctx context.Context, user core.UserID) (core.UserBenefits, error) {
	st, err := l.store.Get(ctx, user)
	if err != nil {
		return core.UserBenefits{}, err
	}
	l.mu.Lock()
	claimed := cloneClaims(l.claims[user])
	l.mu.Unlock()
	return l.catalog.Derive(st.Points, st.Level, claimed), nil
}

func (l *LocalBenefits) Claim(ctx context.Context, user core.UserID, benefitID string) (core.ClaimResponse, error) {
	st, err := l.store.Get(ctx, user)
	if err != nil {
		return core.ClaimResponse{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	claimed := l.claims[user]
	b, err := l.catalog.Claim(st.Points, st.Level, claimed, benefitID)
	if err != nil {
		return core.ClaimResponse{Success: false, Message: err.Error()}, err
	}
	if claimed == nil {
		claimed = map[string]time.Time{}
		l.claims[user] = claimed
	}
	claimed[b.ID] = *b.ClaimedAt
	return core.ClaimResponse{Success: true, Message: "benefit claimed offline", Benefit: &b}, nil
}

var _ BenefitsSource = (*LocalBenefits)(nil)
