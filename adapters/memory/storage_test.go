package memory

import (
	"context"
	"testing"

	"wellkit/core"
)

func TestMemoryStore(t *testing.T) {
	s := New()
	st, err := s.AddPoints(context.Background(), core.UserID("u"), 150)
	if err != nil || st.Points != 150 {
		t.Fatalf("got %v %v", st, err)
	}
	if st.Level != 2 {
		t.Fatalf("level not recomputed: %d", st.Level)
	}
	got, _ := s.Get(context.Background(), core.UserID("u"))
	if got.Points != 150 {
		t.Fatalf("points = %d", got.Points)
	}
	if err := s.Clear(context.Background(), core.UserID("u")); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(context.Background(), core.UserID("u"))
	if got.Points != 0 {
		t.Fatal("clear should reset standing")
	}
}

func TestMemoryStorePutRecomputesLevel(t *testing.T) {
	s := New()
	if err := s.Put(context.Background(), core.Standing{UserID: "u", Points: 650, Level: 1}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(context.Background(), core.UserID("u"))
	if got.Level != 4 {
		t.Fatalf("level = %d, want 4", got.Level)
	}
}
