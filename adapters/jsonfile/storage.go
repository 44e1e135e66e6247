package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wellkit/core"
)

// Store persists standings to a single JSON file. It backs the offline-first
// path: awards land here before any sync attempt, and the file survives
// restarts while the backend is unreachable.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.UserID]core.Standing
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]core.Standing{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]core.Standing
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]core.Standing, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) core.Standing {
	if st, ok := s.data[user]; ok {
		return st
	}
	st := core.NewStanding(user, 0, 0)
	s.data[user] = st
	return st
}

func (s *Store) AddPoints(_ context.Context, user core.UserID, delta int64) (core.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(user)
	next, err := core.AddSafe(st.Points, delta)
	if err != nil {
		return core.Standing{}, err
	}
	st.Points = next
	st.Level = core.LevelFor(next).Level
	st.Updated = time.Now().UTC()
	s.data[user] = st
	if err := s.persist(); err != nil {
		return core.Standing{}, err
	}
	return st, nil
}

func (s *Store) Put(_ context.Context, st core.Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Level = core.LevelFor(st.Points).Level
	st.Updated = time.Now().UTC()
	s.data[st.UserID] = st
	return s.persist()
}

func (s *Store) Get(_ context.Context, user core.UserID) (core.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user), nil
}

func (s *Store) Clear(_ context.Context, user core.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, user)
	return s.persist()
}
