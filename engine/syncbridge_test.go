package engine

import (
	"context"
	"testing"

	mem "wellkit/adapters/memory"
	"wellkit/core"
)

func TestBridgePushesStandingOnSignIn(t *testing.T) {
	store := mem.New()
	bus := NewEventBus(DispatchSync)
	b := NewSyncBridge(store, bus)
	defer b.Close()

	bus.Publish(context.Background(), core.NewAuthChanged("alice", true, 450, 3, 5))

	st, err := store.Get(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if st.Points != 450 || st.Level != 3 || st.Streak != 5 {
		t.Fatalf("standing = %+v", st)
	}
}

func TestBridgeClearsStandingOnSignOut(t *testing.T) {
	store := mem.New()
	bus := NewEventBus(DispatchSync)
	b := NewSyncBridge(store, bus)
	defer b.Close()

	cleared := 0
	bus.Subscribe(core.EventStandingCleared, func(context.Context, core.Event) { cleared++ })

	bus.Publish(context.Background(), core.NewAuthChanged("alice", true, 450, 3, 5))
	bus.Publish(context.Background(), core.NewAuthChanged("alice", false, 0, 0, 0))

	st, _ := store.Get(context.Background(), "alice")
	if st.Points != 0 {
		t.Fatalf("standing not cleared: %+v", st)
	}
	if cleared != 1 {
		t.Fatalf("cleared events = %d", cleared)
	}
}

func TestBridgeIgnoresGamificationEvents(t *testing.T) {
	store := mem.New()
	bus := NewEventBus(DispatchSync)
	b := NewSyncBridge(store, bus)
	defer b.Close()

	// gamification events must never drive the bridge
	bus.Publish(context.Background(), core.NewPointsAdded("alice", 50, 50))
	bus.Publish(context.Background(), core.NewLevelUp("alice", 2))

	st, _ := store.Get(context.Background(), "alice")
	if st.Points != 0 {
		t.Fatalf("bridge reacted to a gamification event: %+v", st)
	}
}
