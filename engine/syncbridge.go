package engine

import (
	"context"

	"wellkit/core"
)

// SyncBridge propagates authentication transitions into the standing store,
// one direction only. It subscribes to auth_changed exclusively; nothing the
// bridge writes produces another auth_changed, so the propagation cannot
// loop back on itself.
type SyncBridge struct {
	store StandingStore
	bus   *EventBus
	unsub func()
}

// NewSyncBridge attaches the bridge to the bus. On an authenticated
// transition the identity's standing is pushed into the store; on a
// sign-out the standing is cleared and standing_cleared is published.
func NewSyncBridge(store StandingStore, bus *EventBus) *SyncBridge {
	b := &SyncBridge{store: store, bus: bus}
	b.unsub = bus.Subscribe(core.EventAuthChanged, b.onAuthChanged)
	return b
}

func (b *SyncBridge) onAuthChanged(ctx context.Context, ev core.Event) {
	if ev.Authenticated {
		st := core.NewStanding(ev.UserID, ev.Total, ev.Streak)
		_ = b.store.Put(ctx, st)
		return
	}
	if err := b.store.Clear(ctx, ev.UserID); err == nil {
		b.bus.Publish(ctx, core.NewStandingCleared(ev.UserID))
	}
}

// Close detaches the bridge from the bus.
func (b *SyncBridge) Close() {
	if b.unsub != nil {
		b.unsub()
	}
}
