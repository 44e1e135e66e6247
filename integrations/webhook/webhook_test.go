package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	mem "wellkit/adapters/memory"
	"wellkit/core"
	"wellkit/engine"
)

type capture struct {
	mu      sync.Mutex
	events  []core.Event
	secrets []string
}

func (c *capture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		var e core.Event
		if err := json.Unmarshal(body, &e); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.events = append(c.events, e)
		c.secrets = append(c.secrets, r.Header.Get("X-Webhook-Secret"))
		c.mu.Unlock()
	}
}

func (c *capture) snapshot() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var cap capture
	srv := httptest.NewServer(cap.handler())
	defer srv.Close()

	sink := New([]string{srv.URL}, WithSecret("hook-secret"))
	sink.OnEvent(core.NewBenefitClaimed("u1", "welcome-kit", 25))

	events := cap.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(events))
	}
	if events[0].Type != core.EventBenefitClaimed || events[0].BenefitID != "welcome-kit" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if cap.secrets[0] != "hook-secret" {
		t.Fatalf("secret header = %q", cap.secrets[0])
	}
}

func TestSink_FiltersEventTypes(t *testing.T) {
	var cap capture
	srv := httptest.NewServer(cap.handler())
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewPointsAdded("u1", 10, 10))
	sink.OnEvent(core.NewLevelUp("u1", 2))

	events := cap.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected only level_up delivered, got %d events", len(events))
	}
	if events[0].Type != core.EventLevelUp {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
}

func TestSink_AttachForwardsFromBus(t *testing.T) {
	var cap capture
	srv := httptest.NewServer(cap.handler())
	defer srv.Close()

	svc := engine.NewRewardsService(mem.New(), engine.NewEventBus(engine.DispatchSync), nil, nil)
	defer svc.Close()

	sink := New([]string{srv.URL})
	detach := sink.Attach(svc)

	ctx := context.Background()
	if _, err := svc.AddPoints(ctx, "u1", 150); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Claim(ctx, "u1", "free-checkup"); err != nil {
		t.Fatal(err)
	}

	// points_added is filtered, level_up and benefit_claimed pass
	events := cap.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(events))
	}

	detach()
	if _, err := svc.AddPoints(ctx, "u1", 200); err != nil {
		t.Fatal(err)
	}
	if got := len(cap.snapshot()); got != 2 {
		t.Fatalf("expected no deliveries after detach, got %d", got)
	}
}
