package memory

import (
	"context"
	"sync"
	"time"

	"wellkit/core"
)

// Store is a concurrent in-memory StandingStore implementation.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu       sync.Mutex
	standing core.Standing
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{standing: core.NewStanding(user, 0, 0)}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) AddPoints(_ context.Context, user core.UserID, delta int64) (core.Standing, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	next, err := core.AddSafe(rec.standing.Points, delta)
	if err != nil {
		return core.Standing{}, err
	}
	rec.standing.Points = next
	rec.standing.Level = core.LevelFor(next).Level
	rec.standing.Updated = time.Now().UTC()
	return rec.standing, nil
}

func (s *Store) Put(_ context.Context, st core.Standing) error {
	rec := s.getOrCreate(st.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	st.Level = core.LevelFor(st.Points).Level
	st.Updated = time.Now().UTC()
	rec.standing = st
	return nil
}

func (s *Store) Get(_ context.Context, user core.UserID) (core.Standing, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.standing, nil
}

func (s *Store) Clear(_ context.Context, user core.UserID) error {
	s.users.Delete(user)
	return nil
}

var _ interface {
	AddPoints(context.Context, core.UserID, int64) (core.Standing, error)
	Put(context.Context, core.Standing) error
	Get(context.Context, core.UserID) (core.Standing, error)
	Clear(context.Context, core.UserID) error
} = (*Store)(nil)
