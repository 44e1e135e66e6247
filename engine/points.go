package engine

import (
	"context"
	"errors"

	"wellkit/core"
)

// AwardResult reports a point award. Standing is always the local state:
// offline-first, the increment is retained regardless of the remote outcome.
// Notice carries a user-legible message when the sync did not happen.
type AwardResult struct {
	Standing core.Standing
	Synced   bool
	Notice   string
}

// PointsSync credits point awards locally first, then best-effort syncs them
// to the backend. Remote failures never roll the local increment back; they
// only shape the notice shown to the user.
type PointsSync struct {
	store  StandingStore
	remote PointsRemote
	bus    *EventBus
	token  func() string
}

// NewPointsSync builds a PointsSync. token may be nil or return "" when no
// session exists; the remote call is then skipped outright instead of being
// attempted and failed.
func NewPointsSync(store StandingStore, remote PointsRemote, bus *EventBus, token func() string) *PointsSync {
	return &PointsSync{store: store, remote: remote, bus: bus, token: token}
}

// Award credits delta points. The local store is updated and events are
// published before any network is touched.
func (p *PointsSync) Award(ctx context.Context, user core.UserID, delta int64) (AwardResult, error) {
	if delta <= 0 {
		return AwardResult{}, errors.New("delta must be positive")
	}
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return AwardResult{}, err
	}
	before, err := p.store.Get(ctx, normalized)
	if err != nil {
		return AwardResult{}, err
	}
	after, err := p.store.AddPoints(ctx, normalized, delta)
	if err != nil {
		return AwardResult{}, err
	}
	if p.bus != nil {
		p.bus.Publish(ctx, core.NewPointsAdded(normalized, delta, after.Points))
		if after.Level > before.Level {
			p.bus.Publish(ctx, core.NewLevelUp(normalized, after.Level))
		}
	}

	res := AwardResult{Standing: after}
	if p.remote == nil || p.token == nil || p.token() == "" {
		res.Notice = noticeFor(core.ErrNotAuthenticated)
		return res, nil
	}
	synced, err := p.remote.AddPoints(ctx, normalized, delta)
	if err != nil {
		res.Notice = noticeFor(err)
		return res, nil
	}
	res.Synced = true
	// points are monotone: adopt the remote total only when it is ahead
	if synced.Points > after.Points {
		adopted := core.NewStanding(normalized, synced.Points, after.Streak)
		if perr := p.store.Put(ctx, adopted); perr == nil {
			res.Standing = adopted
		}
	}
	return res, nil
}

// noticeFor maps each failure class to a distinct, user-legible message.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		return "Sign in to sync your points across devices."
	case errors.Is(err, core.ErrAuthenticationFailed):
		return "Your session expired. Points are saved on this device; sign in again to sync."
	case errors.Is(err, core.ErrNetworkUnavailable):
		return "You're offline. Points are saved on this device and will sync later."
	default:
		return "Could not sync points right now. They are saved on this device."
	}
}
