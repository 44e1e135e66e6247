package analytics

import (
	"context"
	"log/slog"
	"time"

	"wellkit/core"
	"wellkit/engine"
)

// Service bundles metrics collection, periodic aggregation and export.
type Service struct {
	metrics    *Metrics
	aggregator *AggregationEngine
	exporter   *ExportManager
	logger     *slog.Logger

	exportInterval time.Duration
	unsubscribe    []func()
}

// Options tunes the analytics service.
type Options struct {
	AggregationInterval time.Duration
	ExportInterval      time.Duration
	Exporters           []Exporter
	Logger              *slog.Logger
}

func NewService(opts Options) *Service {
	if opts.AggregationInterval <= 0 {
		opts.AggregationInterval = time.Hour
	}
	if opts.ExportInterval <= 0 {
		opts.ExportInterval = 6 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Exporters) == 0 {
		opts.Exporters = []Exporter{NewConsoleExporter(opts.Logger)}
	}

	metrics := NewMetrics()
	return &Service{
		metrics:        metrics,
		aggregator:     NewAggregationEngine(metrics, opts.AggregationInterval, opts.Logger),
		exporter:       NewExportManager(opts.Exporters...),
		logger:         opts.Logger,
		exportInterval: opts.ExportInterval,
	}
}

// Hook exposes the metrics collector for manual event feeding.
func (s *Service) Hook() Hook { return s.metrics }

// Metrics exposes the underlying KPI collector.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Attach subscribes the collector to the rewards event stream. Detach with
// the returned function.
func (s *Service) Attach(svc *engine.RewardsService) func() {
	forward := func(_ context.Context, e core.Event) {
		s.metrics.OnEvent(e)
	}
	types := []core.EventType{
		core.EventPointsAdded,
		core.EventLevelUp,
		core.EventBenefitClaimed,
		core.EventStandingCleared,
	}
	for _, typ := range types {
		s.unsubscribe = append(s.unsubscribe, svc.Subscribe(typ, forward))
	}
	return s.Detach
}

// Detach removes all event subscriptions made by Attach.
func (s *Service) Detach() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
}

// Start begins background aggregation and export loops. It returns once the
// loops are running; cancel the context to stop them.
func (s *Service) Start(ctx context.Context) {
	go s.aggregator.Start(ctx)
	go s.exportLoop(ctx)
}

func (s *Service) exportLoop(ctx context.Context) {
	ticker := time.NewTicker(s.exportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.exporter.Close(); err != nil {
				s.logger.Error("analytics exporter close failed", "error", err)
			}
			return
		case <-ticker.C:
			daily := s.aggregator.GetAllAggregatedData(PeriodDaily)
			if err := s.exporter.ExportData(ctx, daily); err != nil {
				s.logger.Error("analytics export failed", "error", err)
			}
		}
	}
}

// ForceAggregation triggers immediate aggregation, useful in tests.
func (s *Service) ForceAggregation() error {
	return s.aggregator.AggregateNow()
}

// Aggregator exposes the aggregation engine for report queries.
func (s *Service) Aggregator() *AggregationEngine { return s.aggregator }
