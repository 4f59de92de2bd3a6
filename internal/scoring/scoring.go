// Package scoring maps a guess/actual pair to a point value.
//
// The same functions back both the immediate local feedback on the
// client side and the authoritative leaderboard on the room side, so
// the two can never drift apart.
package scoring

import "math"

// Rating scores a guessed average player rating against the true one.
// The scale tops out at 1000 for an exact guess and decays piecewise
// down to 0; the result is floored and never negative.
func Rating(actual, guess int) (score int, difference float64) {
	d := math.Abs(float64(actual - guess))

	var s float64
	switch {
	case d == 0:
		s = 1000
	case d <= 50:
		s = 1000 - d*4
	case d <= 100:
		s = 800 - (d-50)*4
	case d <= 200:
		s = 600 - (d-100)*2
	case d <= 500:
		s = 400 - (d-200)*0.67
	default:
		s = 200 - (d-500)*0.2
	}
	return clampFloor(s), d
}

// Evaluation scores a guessed engine evaluation (in pawns) against the
// true one. Same shape as Rating with breakpoints scaled down a
// hundredfold.
func Evaluation(actual, guess float64) (score int, difference float64) {
	d := math.Abs(actual - guess)

	var s float64
	switch {
	case d == 0:
		s = 1000
	case d <= 0.5:
		s = 1000 - d*400
	case d <= 1.0:
		s = 800 - (d-0.5)*400
	case d <= 2.0:
		s = 600 - (d-1.0)*200
	case d <= 5.0:
		s = 400 - (d-2.0)*66.67
	default:
		s = 200 - (d-5.0)*40
	}
	return clampFloor(s), d
}

func clampFloor(s float64) int {
	if s < 0 {
		return 0
	}
	return int(math.Floor(s))
}
