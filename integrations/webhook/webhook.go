package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"wellkit/core"
	"wellkit/engine"
)

// Sink posts reward events to configured HTTP endpoints.
// It is synchronous for determinism; keep handlers fast or wrap with buffering if needed.
type Sink struct {
	client    *http.Client
	endpoints []string
	secret    string
	types     map[core.EventType]struct{}
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithSecret sets a shared secret sent in the X-Webhook-Secret header.
func WithSecret(secret string) Option {
	return func(s *Sink) { s.secret = secret }
}

// WithEventTypes restricts delivery to the given event types. The default
// forwards level_up and benefit_claimed only.
func WithEventTypes(types ...core.EventType) Option {
	return func(s *Sink) {
		s.types = make(map[core.EventType]struct{}, len(types))
		for _, typ := range types {
			s.types[typ] = struct{}{}
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
		types: map[core.EventType]struct{}{
			core.EventLevelUp:        {},
			core.EventBenefitClaimed: {},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints; delivery errors are ignored.
func (s *Sink) OnEvent(e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	if _, ok := s.types[e.Type]; !ok {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if s.secret != "" {
			req.Header.Set("X-Webhook-Secret", s.secret)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
	}
}

// Attach subscribes the sink to the rewards event stream for every type it
// forwards. Detach with the returned function.
func (s *Sink) Attach(svc *engine.RewardsService) func() {
	var unsubs []func()
	for typ := range s.types {
		unsubs = append(unsubs, svc.Subscribe(typ, func(_ context.Context, e core.Event) {
			s.OnEvent(e)
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
