package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"wellkit/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	ev := core.NewPointsAdded("bob", 10, 10)
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.UserID != "bob" || received.Type != core.EventPointsAdded {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestHubSubscribeUserFilters(t *testing.T) {
	h := NewHub()
	id, ch := h.SubscribeUser("alice", 2)
	defer h.Unsubscribe(id)

	h.Broadcast(context.Background(), core.NewPointsAdded("bob", 10, 10))
	h.Broadcast(context.Background(), core.NewLevelUp("alice", 2))

	received := <-ch
	if received.UserID != "alice" || received.Type != core.EventLevelUp {
		t.Fatalf("unexpected event: %+v", received)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestHubBroadcastDuringUnsubscribe(t *testing.T) {
	h := NewHub()
	ev := core.NewPointsAdded("alice", 10, 10)

	stop := make(chan struct{})
	var panicked atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicked.Store(true)
				}
			}()
			for {
				select {
				case <-stop:
					return
				default:
					h.Broadcast(context.Background(), ev)
				}
			}
		}()
	}

	for i := 0; i < 20000; i++ {
		id, _ := h.SubscribeUser("alice", 1)
		h.Unsubscribe(id)
	}
	close(stop)
	wg.Wait()

	if panicked.Load() {
		t.Fatal("Broadcast panicked while subscriptions churned")
	}
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewBenefitClaimed("alice", "free-checkup", 75)
	b := MarshalJSON(ev)
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.BenefitID != "free-checkup" {
		t.Fatalf("unexpected benefit: %s", out.BenefitID)
	}
}
