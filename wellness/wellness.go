package wellness

import (
	"context"

	mem "wellkit/adapters/memory"
	"wellkit/core"
	"wellkit/engine"
	"wellkit/realtime"
)

// Option configures the rewards service builder.
type Option func(*config)

type config struct {
	storage engine.StandingStore
	catalog core.Catalog
	plans   []core.InsurancePlan
	mode    engine.DispatchMode
	hub     *realtime.Hub
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.StandingStore) Option { return func(c *config) { c.storage = s } }

// WithCatalog replaces the built-in benefit catalog.
func WithCatalog(cat core.Catalog) Option { return func(c *config) { c.catalog = cat } }

// WithPlans replaces the built-in insurance plan book.
func WithPlans(plans []core.InsurancePlan) Option { return func(c *config) { c.plans = plans } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all reward events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// New builds a configured RewardsService. If not provided, defaults are used:
//   - storage: in-memory
//   - catalog: core.DefaultCatalog
//   - plans: engine.DefaultPlans
//   - dispatch: async
func New(opts ...Option) *engine.RewardsService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewRewardsService(cfg.storage, bus, cfg.catalog, cfg.plans)
	if cfg.hub != nil {
		// Bridge all primary events to realtime
		for _, typ := range []core.EventType{
			core.EventPointsAdded,
			core.EventLevelUp,
			core.EventBenefitClaimed,
			core.EventStandingCleared,
		} {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
	}
	return svc
}
