// Package pricing computes monetary cost for calls from their duration.
package pricing

import "math"

// DefaultRatePerMinute is applied when no per-call rate was recorded.
const DefaultRatePerMinute = 0.20

// CallCost prices a call at ratePerMinute, charged per second, rounded
// half-away-from-zero to cents. Non-positive durations cost nothing.
func CallCost(durationSeconds int, ratePerMinute float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	minutes := float64(durationSeconds) / 60.0
	return Round2(minutes * ratePerMinute)
}

// Minutes converts a duration to fractional minutes rounded to cents
// precision, matching how the dashboard reports talk time.
func Minutes(durationSeconds int) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return Round2(float64(durationSeconds) / 60.0)
}

// Round2 rounds half-away-from-zero at two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
