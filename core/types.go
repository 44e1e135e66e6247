package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user in the wellness rewards domain.
type UserID string

// Standing is an immutable snapshot of a user's points, level, and streak.
// Level is always derived from Points via LevelFor; it is carried here only
// as a convenience for consumers and is recomputed on every mutation.
type Standing struct {
	UserID  UserID    `json:"user_id"`
	Points  int64     `json:"points"`
	Level   int       `json:"level"`
	Streak  int       `json:"streak"`
	Updated time.Time `json:"updated"`
}

// NewStanding builds a Standing for the given points total with the level
// recomputed from the level table.
func NewStanding(user UserID, points int64, streak int) Standing {
	if points < 0 {
		points = 0
	}
	return Standing{
		UserID:  user,
		Points:  points,
		Level:   LevelFor(points).Level,
		Streak:  streak,
		Updated: time.Now().UTC(),
	}
}

// Benefit is a claimable reward gated by a points and level threshold.
type Benefit struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	MinPoints   int64      `json:"min_points"`
	MinLevel    int        `json:"min_level"`
	Value       float64    `json:"value"`
	Claimed     bool       `json:"claimed"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
}

// Unlocked reports whether the benefit's thresholds are met by the given
// points/level pair, independent of claim state.
func (b Benefit) Unlocked(points int64, level int) bool {
	return points >= b.MinPoints && level >= b.MinLevel
}

// UserBenefits is a derived projection of the catalog for one user. A benefit
// id appears in exactly one of the three slices; the projection is recomputed
// on every points or level change, never mutated in place.
type UserBenefits struct {
	Unlocked     []Benefit `json:"unlocked_benefits"`
	Available    []Benefit `json:"available_benefits"`
	Claimed      []Benefit `json:"claimed_benefits"`
	TotalSavings float64   `json:"total_savings"`
}

// Clone returns a deep copy of the projection so callers can hold it across
// reconciliations without aliasing.
func (u UserBenefits) Clone() UserBenefits {
	cp := UserBenefits{
		Unlocked:     make([]Benefit, len(u.Unlocked)),
		Available:    make([]Benefit, len(u.Available)),
		Claimed:      make([]Benefit, len(u.Claimed)),
		TotalSavings: u.TotalSavings,
	}
	copy(cp.Unlocked, u.Unlocked)
	copy(cp.Available, u.Available)
	copy(cp.Claimed, u.Claimed)
	return cp
}

// ClaimResponse is the normalized outcome of a claim attempt. Both the remote
// and the local claim path produce this shape; callers branch on Success only.
type ClaimResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Benefit *Benefit `json:"benefit,omitempty"`
}

// InsurancePlan is an immutable plan description; only the active-plan
// binding to a user ever changes.
type InsurancePlan struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Premium    float64           `json:"premium"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UserInsurance binds a user to their active plan.
type UserInsurance struct {
	UserID     UserID    `json:"user_id"`
	PlanID     string    `json:"plan_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// DiscountCalculation carries a discount percentage together with the
// standing snapshot it was computed from. A calculation whose basis no longer
// matches the current points/level is stale and must be recomputed.
type DiscountCalculation struct {
	Percentage  float64 `json:"discount_percentage"`
	BasisPoints int64   `json:"basis_points"`
	BasisLevel  int     `json:"basis_level"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateBenefitID ensures non-empty benefit id with simple charset check.
func ValidateBenefitID(id string) error {
	s := strings.TrimSpace(id)
	if s == "" {
		return errors.New("empty benefit id")
	}
	// simple check: alnum, dash, underscore
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return errors.New("invalid benefit id")
	}
	return nil
}
