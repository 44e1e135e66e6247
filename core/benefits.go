package core

import (
	"sort"
	"time"
)

// Catalog is the ordered set of benefits a program offers. Declaration order
// is meaningful: it is the tie-break of last resort when picking the next
// benefit to surface.
type Catalog []Benefit

// DefaultCatalog returns the built-in wellness benefit set.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "welcome-kit", Title: "Wellness welcome kit", Description: "Starter kit with fitness tracker band", MinPoints: 50, MinLevel: 1, Value: 25},
		{ID: "free-checkup", Title: "Free annual health checkup", Description: "Covers a full preventive screening", MinPoints: 100, MinLevel: 2, Value: 75},
		{ID: "gym-discount", Title: "Partner gym discount", Description: "20% off partner gym memberships for a year", MinPoints: 300, MinLevel: 3, Value: 120},
		{ID: "premium-credit", Title: "Premium credit", Description: "One-time credit applied to your next premium", MinPoints: 600, MinLevel: 4, Value: 200},
		{ID: "wellness-retreat", Title: "Wellness retreat voucher", Description: "Weekend retreat at a partner resort", MinPoints: 1000, MinLevel: 5, Value: 350},
	}
}

// Derive partitions the catalog for a points/level pair into unlocked,
// available and claimed benefits. claimed maps benefit id to claim time;
// entries not in the catalog are ignored. Every catalog benefit lands in
// exactly one partition. Derive is pure: it never mutates the catalog and
// the same inputs always produce the same projection.
func (c Catalog) Derive(points int64, level int, claimed map[string]time.Time) UserBenefits {
	out := UserBenefits{}
	for _, b := range c {
		if at, ok := claimed[b.ID]; ok {
			when := at
			b.Claimed = true
			b.ClaimedAt = &when
			out.Claimed = append(out.Claimed, b)
			out.TotalSavings += b.Value
			continue
		}
		if b.Unlocked(points, level) {
			out.Unlocked = append(out.Unlocked, b)
		} else {
			out.Available = append(out.Available, b)
		}
	}
	return out
}

// Next returns the not-yet-unlocked benefit with the smallest MinPoints
// (ties broken by smaller MinLevel, then declaration order). The second
// return is false when everything is already unlocked. Presentation treats
// the result as "the" next goal, so the pick must be deterministic.
func (c Catalog) Next(points int64, level int) (Benefit, bool) {
	idx := make([]int, 0, len(c))
	for i, b := range c {
		if !b.Unlocked(points, level) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return Benefit{}, false
	}
	sort.SliceStable(idx, func(a, b int) bool {
		x, y := c[idx[a]], c[idx[b]]
		if x.MinPoints != y.MinPoints {
			return x.MinPoints < y.MinPoints
		}
		return x.MinLevel < y.MinLevel
	})
	return c[idx[0]], true
}

// PointsToNext returns how many points separate the user from the next
// benefit, zero when everything is unlocked or the points gate is already
// met (a level gate may still hold it back).
func (c Catalog) PointsToNext(points int64, level int) int64 {
	next, ok := c.Next(points, level)
	if !ok || next.MinPoints <= points {
		return 0
	}
	return next.MinPoints - points
}

// Claim validates a claim attempt against the catalog and current standing.
// It returns ErrNotEligible when thresholds are not met, ErrAlreadyClaimed
// when the id is in claimed, and the claimed benefit on success. Claim does
// not record the claim; the caller owns the claimed set so that a second
// attempt reports AlreadyClaimed instead of double-crediting.
func (c Catalog) Claim(points int64, level int, claimed map[string]time.Time, id string) (Benefit, error) {
	for _, b := range c {
		if b.ID != id {
			continue
		}
		if _, ok := claimed[id]; ok {
			return Benefit{}, ErrAlreadyClaimed
		}
		if !b.Unlocked(points, level) {
			return Benefit{}, ErrNotEligible
		}
		now := time.Now().UTC()
		b.Claimed = true
		b.ClaimedAt = &now
		return b, nil
	}
	return Benefit{}, ErrNotEligible
}

// Find returns the catalog entry with the given id.
func (c Catalog) Find(id string) (Benefit, bool) {
	for _, b := range c {
		if b.ID == id {
			return b, true
		}
	}
	return Benefit{}, false
}
