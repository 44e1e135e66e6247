package engine

import (
	"context"
	"sync"

	"wellkit/core"
)

// SourceKind marks which path produced a snapshot so consumers can show
// degraded-mode UI when the backend was unreachable.
type SourceKind string

const (
	SourceRemote SourceKind = "remote"
	SourceLocal  SourceKind = "local"
)

// LoadState is the reconciler lifecycle: Idle until the first load, Loading
// while a fetch is in flight, then Ready or Errored.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateErrored
)

// BenefitsSnapshot is the reconciled benefits view handed to observers.
type BenefitsSnapshot struct {
	State    LoadState
	Source   SourceKind
	Benefits core.UserBenefits
	Err      error
}

// BenefitsReconciler merges the authoritative benefits source with the local
// derivation fallback for one user. Only availability failures switch to the
// local path; server rejections are surfaced untouched. At most one load is
// in flight per instance: concurrent callers join the in-flight load and
// observe its result. A load superseded by a newer one never overwrites the
// published snapshot.
type BenefitsReconciler struct {
	remote BenefitsSource
	local  BenefitsSource
	user   core.UserID

	mu       sync.Mutex
	snap     BenefitsSnapshot
	inflight *loadCall
	gen      uint64

	watchID  int64
	watchers map[int64]func(BenefitsSnapshot)
	unsubs   []func()
}

type loadCall struct {
	done chan struct{}
	snap BenefitsSnapshot
	err  error
}

// NewBenefitsReconciler binds a reconciler to a user. When bus is non-nil the
// reconciler reloads itself whenever that user's points or level change;
// unrelated events never trigger a reload.
func NewBenefitsReconciler(remote, local BenefitsSource, user core.UserID, bus *EventBus) *BenefitsReconciler {
	r := &BenefitsReconciler{
		remote:   remote,
		local:    local,
		user:     user,
		snap:     BenefitsSnapshot{State: StateIdle},
		watchers: map[int64]func(BenefitsSnapshot){},
	}
	if bus != nil {
		reload := func(ctx context.Context, ev core.Event) {
			if ev.UserID != r.user {
				return
			}
			go func() { _, _ = r.Load(context.Background()) }()
		}
		r.unsubs = append(r.unsubs,
			bus.Subscribe(core.EventPointsAdded, reload),
			bus.Subscribe(core.EventLevelUp, reload),
		)
	}
	return r
}

// Snapshot returns the last published state.
func (r *BenefitsReconciler) Snapshot() BenefitsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// OnChange registers an observer notified on every published snapshot.
// Returns an unsubscribe func.
func (r *BenefitsReconciler) OnChange(fn func(BenefitsSnapshot)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchID++
	id := r.watchID
	r.watchers[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.watchers, id)
	}
}

// Load fetches the benefits projection, remote first. A second Load arriving
// while one is in flight joins it rather than issuing a duplicate fetch.
func (r *BenefitsReconciler) Load(ctx context.Context) (BenefitsSnapshot, error) {
	r.mu.Lock()
	if c := r.inflight; c != nil {
		r.mu.Unlock()
		select {
		case <-c.done:
			return c.snap, c.err
		case <-ctx.Done():
			return BenefitsSnapshot{}, ctx.Err()
		}
	}
	c := &loadCall{done: make(chan struct{})}
	r.inflight = c
	r.gen++
	gen := r.gen
	r.snap.State = StateLoading
	loading := r.snap
	r.mu.Unlock()
	r.notify(loading)

	snap, err := r.fetch(ctx)

	r.mu.Lock()
	r.inflight = nil
	// last-writer-wins: a superseded load must not clobber a newer result
	current := gen == r.gen
	if current {
		r.snap = snap
	}
	r.mu.Unlock()
	if current {
		r.notify(snap)
	}

	c.snap, c.err = snap, err
	close(c.done)
	return snap, err
}

func (r *BenefitsReconciler) fetch(ctx context.Context) (BenefitsSnapshot, error) {
	ub, err := r.remote.Benefits(ctx, r.user)
	if err == nil {
		return BenefitsSnapshot{State: StateReady, Source: SourceRemote, Benefits: ub}, nil
	}
	if !core.Availability(err) {
		return BenefitsSnapshot{State: StateErrored, Err: err}, err
	}
	ub, lerr := r.local.Benefits(ctx, r.user)
	if lerr != nil {
		return BenefitsSnapshot{State: StateErrored, Err: lerr}, lerr
	}
	return BenefitsSnapshot{State: StateReady, Source: SourceLocal, Benefits: ub}, nil
}

// Claim attempts the remote claim, falling back to the local ledger only on
// availability failures; a remote rejection is authoritative and returned
// verbatim. A successful claim on either path triggers a fresh load so the
// published snapshot reflects it.
func (r *BenefitsReconciler) Claim(ctx context.Context, benefitID string) (core.ClaimResponse, error) {
	resp, err := r.remote.Claim(ctx, r.user, benefitID)
	if err != nil && core.Availability(err) {
		resp, err = r.local.Claim(ctx, r.user, benefitID)
	}
	if resp.Success {
		_, _ = r.Load(ctx)
	}
	return resp, err
}

// Close detaches the reconciler from the event bus.
func (r *BenefitsReconciler) Close() {
	for _, u := range r.unsubs {
		u()
	}
}

// notify fans a snapshot out to observers without holding the lock, so a
// handler may read Snapshot or unsubscribe itself.
func (r *BenefitsReconciler) notify(snap BenefitsSnapshot) {
	r.mu.Lock()
	fns := make([]func(BenefitsSnapshot), 0, len(r.watchers))
	for _, fn := range r.watchers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
