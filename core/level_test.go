package core

import "testing"

func TestLevelForTable(t *testing.T) {
	cases := []struct {
		points int64
		level  int
		title  string
		toNext int64
	}{
		{0, 1, "Beginner", 100},
		{99, 1, "Beginner", 1},
		{100, 2, "Explorer", 200},
		{299, 2, "Explorer", 1},
		{300, 3, "Advocate", 300},
		{450, 3, "Advocate", 150},
		{600, 4, "Champion", 400},
		{1000, 5, "Wellness Master", 0},
		{50_000, 5, "Wellness Master", 0},
	}
	for _, c := range cases {
		p := LevelFor(c.points)
		if p.Level != c.level || p.Title != c.title || p.PointsToNext != c.toNext {
			t.Fatalf("LevelFor(%d) = %+v, want level=%d title=%q toNext=%d", c.points, p, c.level, c.title, c.toNext)
		}
	}
}

func TestLevelForMaxFlag(t *testing.T) {
	if LevelFor(999).AtMax {
		t.Fatal("999 points should not be max level")
	}
	p := LevelFor(1000)
	if !p.AtMax || p.PointsToNext != 0 {
		t.Fatalf("expected max level flag, got %+v", p)
	}
}

func TestLevelForMonotoneAndTotal(t *testing.T) {
	prev := 0
	for p := int64(-50); p <= 1500; p += 7 {
		lvl := LevelFor(p).Level
		if lvl < prev {
			t.Fatalf("level decreased at points=%d: %d -> %d", p, prev, lvl)
		}
		if lvl != LevelFor(p).Level {
			t.Fatalf("LevelFor not stable at points=%d", p)
		}
		prev = lvl
	}
}

func TestLevelForHoldsThresholdInvariant(t *testing.T) {
	for p := int64(0); p <= 1200; p += 13 {
		lvl := LevelFor(p).Level
		if p < ThresholdFor(lvl) {
			t.Fatalf("points=%d below threshold of its own level %d", p, lvl)
		}
		if lvl < MaxLevel && p >= ThresholdFor(lvl+1) {
			t.Fatalf("points=%d already meets threshold of level %d", p, lvl+1)
		}
	}
}
