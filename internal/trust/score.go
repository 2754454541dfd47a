// Package trust computes the bounded trust score used to gate job eligibility.
package trust

import (
	"math"

	"github.com/cuongbtq/swayam-be/internal/domain"
)

const (
	MinScore = 0
	MaxScore = 100

	baseScore          = 40
	perCompletedJob    = 5
	perRatingPoint     = 5
	perSafetyPointDiv  = 5 // safety_score * 0.2
	defaultRating      = 5.0
	defaultSafetyScore = 100

	// absorbs float error so 4.6*5 floors to 23, not 22
	epsilon = 1e-9
)

// Reliability labels shown next to a score
const (
	ReliabilityHigh   = "High"
	ReliabilityMedium = "Medium"
	ReliabilityLow    = "Low"
)

// Metrics are a worker's historical performance figures. Nil fields fall
// back to rating 5.0 and safety score 100.
type Metrics struct {
	CompletedJobs int
	Rating        *float64
	SafetyScore   *int
}

// MetricsFor extracts trust metrics from a user profile
func MetricsFor(u *domain.User) Metrics {
	if u == nil {
		return Metrics{}
	}
	return Metrics{
		CompletedJobs: u.CompletedJobs,
		Rating:        u.Rating,
		SafetyScore:   u.SafetyScore,
	}
}

// Score returns min(100, floor(40 + completed*5 + rating*5 + safety*0.2)),
// clamped to [0, 100].
func Score(m Metrics) int {
	completed := max(m.CompletedJobs, 0)

	rating := defaultRating
	if m.Rating != nil {
		rating = math.Min(math.Max(*m.Rating, 0), 5)
	}

	safety := defaultSafetyScore
	if m.SafetyScore != nil {
		safety = min(max(*m.SafetyScore, 0), 100)
	}

	raw := float64(baseScore) +
		float64(completed)*perCompletedJob +
		rating*perRatingPoint +
		float64(safety)/perSafetyPointDiv

	score := int(math.Floor(raw + epsilon))
	return min(max(score, MinScore), MaxScore)
}

// Reliability maps a score to the label shown on the worker dashboard
func Reliability(score int) string {
	switch {
	case score >= 80:
		return ReliabilityHigh
	case score >= 60:
		return ReliabilityMedium
	default:
		return ReliabilityLow
	}
}
