package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"wellkit/core"
)

// AggregationPeriod represents different time periods for aggregation
type AggregationPeriod string

const (
	PeriodDaily   AggregationPeriod = "daily"
	PeriodWeekly  AggregationPeriod = "weekly"
	PeriodMonthly AggregationPeriod = "monthly"
)

// AggregatedData represents aggregated analytics data
type AggregatedData struct {
	Period    AggregationPeriod `json:"period"`
	Key       string            `json:"key"` // e.g., "2024-01-01" for daily, "2024-W01" for weekly
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`

	// User engagement
	ActiveUsers int `json:"active_users"`

	// Points and levels
	PointsAwarded int64 `json:"points_awarded"`
	LevelUps      int64 `json:"level_ups"`

	// Benefit claims and premium savings
	ClaimsRecorded  int64            `json:"claims_recorded"`
	SavingsCredited float64          `json:"savings_credited"`
	ClaimsByBenefit map[string]int64 `json:"claims_by_benefit"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
}

// AggregationEngine handles periodic aggregation of analytics data
type AggregationEngine struct {
	mu sync.RWMutex

	metrics *Metrics
	logger  *slog.Logger

	dailyAggregations   map[string]*AggregatedData
	weeklyAggregations  map[string]*AggregatedData
	monthlyAggregations map[string]*AggregatedData

	aggregationInterval time.Duration
	lastAggregation     time.Time
}

func NewAggregationEngine(metrics *Metrics, aggregationInterval time.Duration, logger *slog.Logger) *AggregationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregationEngine{
		metrics:             metrics,
		logger:              logger,
		dailyAggregations:   make(map[string]*AggregatedData),
		weeklyAggregations:  make(map[string]*AggregatedData),
		monthlyAggregations: make(map[string]*AggregatedData),
		aggregationInterval: aggregationInterval,
		lastAggregation:     time.Now(),
	}
}

// OnEvent forwards events to the underlying metrics hook
func (ae *AggregationEngine) OnEvent(e core.Event) {
	ae.metrics.OnEvent(e)
}

// AggregateNow forces an immediate aggregation of all periods
func (ae *AggregationEngine) AggregateNow() error {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	now := time.Now().UTC()

	ae.aggregateDaily(now)
	ae.aggregateWeekly(now)
	ae.aggregateMonthly(now)

	ae.lastAggregation = now
	return nil
}

func (ae *AggregationEngine) aggregateDaily(now time.Time) {
	today := now.Format("2006-01-02")
	startTime := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	data := ae.newData(PeriodDaily, today, startTime, startTime.Add(24*time.Hour), now)
	data.ActiveUsers = ae.metrics.GetDailyActiveUsers(today)
	ae.fillDayRange(data, startTime, 1)

	ae.dailyAggregations[today] = data
}

// aggregateWeekly aggregates data for the current ISO week
func (ae *AggregationEngine) aggregateWeekly(now time.Time) {
	year, week := now.ISOWeek()
	weekKey := fmt.Sprintf("%d-W%02d", year, week)

	// Week starts on Monday
	daysSinceMonday := int(now.Weekday()-time.Monday) % 7
	if daysSinceMonday < 0 {
		daysSinceMonday += 7
	}
	startTime := time.Date(now.Year(), now.Month(), now.Day()-daysSinceMonday, 0, 0, 0, 0, time.UTC)

	data := ae.newData(PeriodWeekly, weekKey, startTime, startTime.Add(7*24*time.Hour), now)
	data.ActiveUsers = ae.metrics.GetWeeklyActiveUsers(weekKey)
	ae.fillDayRange(data, startTime, 7)

	ae.weeklyAggregations[weekKey] = data
}

// aggregateMonthly aggregates data for the current month
func (ae *AggregationEngine) aggregateMonthly(now time.Time) {
	monthKey := now.Format("2006-01")

	startTime := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	endTime := startTime.AddDate(0, 1, 0)

	data := ae.newData(PeriodMonthly, monthKey, startTime, endTime, now)
	data.ActiveUsers = ae.metrics.GetMonthlyActiveUsers(monthKey)
	ae.fillDayRange(data, startTime, int(endTime.Sub(startTime).Hours()/24))

	ae.monthlyAggregations[monthKey] = data
}

func (ae *AggregationEngine) newData(period AggregationPeriod, key string, start, end, now time.Time) *AggregatedData {
	return &AggregatedData{
		Period:          period,
		Key:             key,
		StartTime:       start,
		EndTime:         end,
		CreatedAt:       now,
		ClaimsByBenefit: make(map[string]int64),
	}
}

func (ae *AggregationEngine) fillDayRange(data *AggregatedData, start time.Time, days int) {
	for i := 0; i < days; i++ {
		dayKey := start.AddDate(0, 0, i).Format("2006-01-02")
		data.PointsAwarded += ae.metrics.GetPointsAwardedByDay(dayKey)
		data.LevelUps += ae.metrics.GetLevelUpsByDay(dayKey)
		data.ClaimsRecorded += ae.metrics.GetClaimsByDay(dayKey)
		data.SavingsCredited += ae.metrics.GetSavingsByDay(dayKey)
	}
	for id, claims := range ae.metrics.GetAllClaimsByBenefit() {
		data.ClaimsByBenefit[id] = claims
	}
}

// GetAggregatedData returns aggregated data for a specific period and key
func (ae *AggregationEngine) GetAggregatedData(period AggregationPeriod, key string) (*AggregatedData, bool) {
	ae.mu.RLock()
	defer ae.mu.RUnlock()

	aggregations := ae.byPeriod(period)
	if aggregations == nil {
		return nil, false
	}
	data, exists := aggregations[key]
	return data, exists
}

// GetAllAggregatedData returns all aggregated data for a specific period
func (ae *AggregationEngine) GetAllAggregatedData(period AggregationPeriod) []*AggregatedData {
	ae.mu.RLock()
	defer ae.mu.RUnlock()

	aggregations := ae.byPeriod(period)
	if aggregations == nil {
		return nil
	}
	result := make([]*AggregatedData, 0, len(aggregations))
	for _, data := range aggregations {
		result = append(result, data)
	}
	return result
}

func (ae *AggregationEngine) byPeriod(period AggregationPeriod) map[string]*AggregatedData {
	switch period {
	case PeriodDaily:
		return ae.dailyAggregations
	case PeriodWeekly:
		return ae.weeklyAggregations
	case PeriodMonthly:
		return ae.monthlyAggregations
	default:
		return nil
	}
}

// Start begins periodic aggregation in a background goroutine
func (ae *AggregationEngine) Start(ctx context.Context) {
	ticker := time.NewTicker(ae.aggregationInterval)
	defer ticker.Stop()

	if err := ae.AggregateNow(); err != nil {
		ae.logger.Error("initial aggregation failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ae.AggregateNow(); err != nil {
				ae.logger.Error("periodic aggregation failed", "error", err)
			}
		}
	}
}

// ExportData exports aggregated data to JSON format
func (ae *AggregationEngine) ExportData(period AggregationPeriod) ([]byte, error) {
	data := ae.GetAllAggregatedData(period)
	return json.MarshalIndent(data, "", "  ")
}

// ExportToFile writes aggregated data for a period to a JSON file
func (ae *AggregationEngine) ExportToFile(period AggregationPeriod, filename string) error {
	data, err := ae.ExportData(period)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}
