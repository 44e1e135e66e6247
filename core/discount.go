package core

import "math"

// discountByLevel maps a level to its premium discount percentage. The table
// is non-decreasing: a higher level never yields a smaller discount.
var discountByLevel = []float64{0, 5, 10, 15, 20}

// DiscountFor computes the premium discount percentage for a standing. The
// result is in [0,100] and monotone non-decreasing in level for fixed points.
// Points currently refine nothing beyond the level they imply, but the
// signature carries them so a calculation can record its full basis.
func DiscountFor(level int, points int64) DiscountCalculation {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return DiscountCalculation{
		Percentage:  discountByLevel[level-1],
		BasisPoints: points,
		BasisLevel:  level,
	}
}

// Savings projects a premium through a discount percentage, rounded to the
// currency's minor unit. It never mutates plan data.
func Savings(premium, percentage float64) float64 {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	return math.Round(premium*percentage) / 100
}
