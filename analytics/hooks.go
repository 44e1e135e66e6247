package analytics

import (
	"fmt"
	"sync"
	"time"

	"wellkit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// BridgeHook fans an event out to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// DAU tracks daily active users.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// Metrics tracks engagement, points, level and claim KPIs across the
// rewards domain.
type Metrics struct {
	mu sync.RWMutex

	// User engagement
	dailyActiveUsers   map[string]map[core.UserID]struct{}
	weeklyActiveUsers  map[string]map[core.UserID]struct{}
	monthlyActiveUsers map[string]map[core.UserID]struct{}

	// Points
	pointsAwardedByDay map[string]int64

	// Levels
	levelUpsByDay     map[string]int64
	levelDistribution map[int]int64 // level reached -> count

	// Benefit claims
	claimsByDay      map[string]int64
	claimsByBenefit  map[string]int64
	savingsByDay     map[string]float64
	uniqueClaimants  map[string]map[core.UserID]struct{}
	standingsCleared int64

	// Real-time counters (last 24 hours)
	realtimeCounters struct {
		pointsAwarded  int64
		claimsRecorded int64
		levelsReached  int64
		lastReset      time.Time
	}
}

func NewMetrics() *Metrics {
	m := &Metrics{
		dailyActiveUsers:   make(map[string]map[core.UserID]struct{}),
		weeklyActiveUsers:  make(map[string]map[core.UserID]struct{}),
		monthlyActiveUsers: make(map[string]map[core.UserID]struct{}),
		pointsAwardedByDay: make(map[string]int64),
		levelUpsByDay:      make(map[string]int64),
		levelDistribution:  make(map[int]int64),
		claimsByDay:        make(map[string]int64),
		claimsByBenefit:    make(map[string]int64),
		savingsByDay:       make(map[string]float64),
		uniqueClaimants:    make(map[string]map[core.UserID]struct{}),
	}
	m.realtimeCounters.lastReset = time.Now()
	return m
}

func (m *Metrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	week := getWeekKey(e.Time)
	month := getMonthKey(e.Time)

	m.trackUserEngagement(e.UserID, day, week, month)

	switch e.Type {
	case core.EventPointsAdded:
		if e.Delta > 0 {
			m.pointsAwardedByDay[day] += e.Delta
			m.realtimeCounters.pointsAwarded += e.Delta
		}
	case core.EventLevelUp:
		m.levelUpsByDay[day]++
		m.levelDistribution[e.Level]++
		m.realtimeCounters.levelsReached++
	case core.EventBenefitClaimed:
		m.claimsByDay[day]++
		m.claimsByBenefit[e.BenefitID]++
		m.savingsByDay[day] += e.Savings

		if m.uniqueClaimants[e.BenefitID] == nil {
			m.uniqueClaimants[e.BenefitID] = make(map[core.UserID]struct{})
		}
		m.uniqueClaimants[e.BenefitID][e.UserID] = struct{}{}
		m.realtimeCounters.claimsRecorded++
	case core.EventStandingCleared:
		m.standingsCleared++
	}

	// Reset realtime counters every 24 hours
	if time.Since(m.realtimeCounters.lastReset) > 24*time.Hour {
		m.realtimeCounters.pointsAwarded = 0
		m.realtimeCounters.claimsRecorded = 0
		m.realtimeCounters.levelsReached = 0
		m.realtimeCounters.lastReset = time.Now()
	}
}

func (m *Metrics) trackUserEngagement(userID core.UserID, day, week, month string) {
	if m.dailyActiveUsers[day] == nil {
		m.dailyActiveUsers[day] = make(map[core.UserID]struct{})
	}
	m.dailyActiveUsers[day][userID] = struct{}{}

	if m.weeklyActiveUsers[week] == nil {
		m.weeklyActiveUsers[week] = make(map[core.UserID]struct{})
	}
	m.weeklyActiveUsers[week][userID] = struct{}{}

	if m.monthlyActiveUsers[month] == nil {
		m.monthlyActiveUsers[month] = make(map[core.UserID]struct{})
	}
	m.monthlyActiveUsers[month][userID] = struct{}{}
}

// GetDailyActiveUsers returns the count of daily active users for a specific day
func (m *Metrics) GetDailyActiveUsers(day string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dailyActiveUsers[day])
}

// GetWeeklyActiveUsers returns the count of weekly active users for a specific week
func (m *Metrics) GetWeeklyActiveUsers(week string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weeklyActiveUsers[week])
}

// GetMonthlyActiveUsers returns the count of monthly active users for a specific month
func (m *Metrics) GetMonthlyActiveUsers(month string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.monthlyActiveUsers[month])
}

// GetPointsAwardedByDay returns total points awarded on a specific day
func (m *Metrics) GetPointsAwardedByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pointsAwardedByDay[day]
}

// GetLevelUpsByDay returns the number of level-ups recorded on a specific day
func (m *Metrics) GetLevelUpsByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelUpsByDay[day]
}

// GetLevelDistribution returns how many level-up events landed on each level.
func (m *Metrics) GetLevelDistribution() map[int]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]int64, len(m.levelDistribution))
	for level, count := range m.levelDistribution {
		out[level] = count
	}
	return out
}

// GetClaimsByDay returns total benefit claims recorded on a specific day
func (m *Metrics) GetClaimsByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claimsByDay[day]
}

// GetClaimsByBenefit returns total claims recorded for a specific benefit
func (m *Metrics) GetClaimsByBenefit(benefitID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claimsByBenefit[benefitID]
}

// GetAllClaimsByBenefit returns a copy of the per-benefit claim totals.
func (m *Metrics) GetAllClaimsByBenefit() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.claimsByBenefit))
	for id, count := range m.claimsByBenefit {
		out[id] = count
	}
	return out
}

// GetSavingsByDay returns savings credited on a specific day
func (m *Metrics) GetSavingsByDay(day string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.savingsByDay[day]
}

// GetUniqueClaimants returns the count of distinct users who claimed a benefit
func (m *Metrics) GetUniqueClaimants(benefitID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.uniqueClaimants[benefitID])
}

// GetRealtimeStats returns real-time statistics for the last 24 hours
func (m *Metrics) GetRealtimeStats() (points int64, claims int64, levels int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.realtimeCounters.pointsAwarded,
		m.realtimeCounters.claimsRecorded,
		m.realtimeCounters.levelsReached
}

// GetTopBenefits returns benefits ordered by total claims, capped at limit.
func (m *Metrics) GetTopBenefits(limit int) []BenefitClaimCount {
	m.mu.RLock()
	defer m.mu.RUnlock()

	top := make([]BenefitClaimCount, 0, len(m.claimsByBenefit))
	for id, count := range m.claimsByBenefit {
		top = append(top, BenefitClaimCount{BenefitID: id, Claims: count})
	}
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			if top[i].Claims < top[j].Claims ||
				(top[i].Claims == top[j].Claims && top[i].BenefitID > top[j].BenefitID) {
				top[i], top[j] = top[j], top[i]
			}
		}
	}
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// BenefitClaimCount pairs a benefit with its claim total for reporting.
type BenefitClaimCount struct {
	BenefitID string `json:"benefit_id"`
	Claims    int64  `json:"claims"`
}

// Helper functions
func getWeekKey(t time.Time) string {
	tt := t.UTC()
	year, week := tt.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func getMonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
