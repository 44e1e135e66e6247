package core

// levelThresholds holds the cumulative points required to hold each level.
// Level N is held by any points total in [levelThresholds[N-1], levelThresholds[N]).
var levelThresholds = []int64{0, 100, 300, 600, 1000}

var levelTitles = []string{"Beginner", "Explorer", "Advocate", "Champion", "Wellness Master"}

// MaxLevel is the highest attainable level.
const MaxLevel = 5

// Progress describes where a points total sits in the level table.
type Progress struct {
	Level        int    `json:"level"`
	Title        string `json:"title"`
	PointsToNext int64  `json:"points_to_next"`
	AtMax        bool   `json:"at_max"`
}

// LevelFor maps a cumulative points total to its level and distance to the
// next one. It is total and deterministic: negative inputs clamp to level 1,
// and the same input always yields the same result. At MaxLevel PointsToNext
// is zero and AtMax is set; callers branch on AtMax rather than dividing by
// the remaining distance.
func LevelFor(points int64) Progress {
	if points < 0 {
		points = 0
	}
	level := 1
	for i := 1; i < len(levelThresholds); i++ {
		if points >= levelThresholds[i] {
			level = i + 1
		}
	}
	p := Progress{Level: level, Title: levelTitles[level-1]}
	if level >= MaxLevel {
		p.AtMax = true
		return p
	}
	p.PointsToNext = levelThresholds[level] - points
	return p
}

// ThresholdFor returns the cumulative points required to hold the given
// level, clamped to the table bounds.
func ThresholdFor(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelThresholds[level-1]
}
