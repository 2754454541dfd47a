package trust

import (
	"testing"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		metrics  Metrics
		expected int
	}{
		{
			name:     "defaults for a new worker",
			metrics:  Metrics{},
			expected: 85,
		},
		{
			name: "explicit defaults",
			metrics: Metrics{
				CompletedJobs: 0,
				Rating:        ptrFloat(5.0),
				SafetyScore:   ptrInt(100),
			},
			expected: 85,
		},
		{
			name: "clamped at 100",
			metrics: Metrics{
				CompletedJobs: 20,
				Rating:        ptrFloat(3.0),
				SafetyScore:   ptrInt(50),
			},
			expected: 100,
		},
		{
			name: "floor of fractional rating",
			metrics: Metrics{
				CompletedJobs: 1,
				Rating:        ptrFloat(4.7),
				SafetyScore:   ptrInt(33),
			},
			// 40 + 5 + 23.5 + 6.6 = 75.1
			expected: 75,
		},
		{
			name: "rating that is not exactly representable",
			metrics: Metrics{
				Rating:      ptrFloat(4.6),
				SafetyScore: ptrInt(0),
			},
			expected: 63,
		},
		{
			name: "lowest possible inputs",
			metrics: Metrics{
				Rating:      ptrFloat(0),
				SafetyScore: ptrInt(0),
			},
			expected: 40,
		},
		{
			name: "out of range inputs are clamped",
			metrics: Metrics{
				CompletedJobs: -3,
				Rating:        ptrFloat(-1),
				SafetyScore:   ptrInt(-50),
			},
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.metrics))
		})
	}
}

func TestScore_AlwaysBounded(t *testing.T) {
	for completed := 0; completed <= 30; completed += 3 {
		for rating := 0.0; rating <= 5.0; rating += 0.5 {
			for safety := 0; safety <= 100; safety += 10 {
				score := Score(Metrics{
					CompletedJobs: completed,
					Rating:        ptrFloat(rating),
					SafetyScore:   ptrInt(safety),
				})
				assert.GreaterOrEqual(t, score, MinScore)
				assert.LessOrEqual(t, score, MaxScore)
			}
		}
	}
}

func TestScore_Monotonic(t *testing.T) {
	base := Metrics{CompletedJobs: 1, Rating: ptrFloat(2.0), SafetyScore: ptrInt(20)}
	baseScore := Score(base)

	t.Run("completed jobs", func(t *testing.T) {
		prev := baseScore
		for c := 2; c < 15; c++ {
			m := base
			m.CompletedJobs = c
			s := Score(m)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	})

	t.Run("rating", func(t *testing.T) {
		prev := baseScore
		for r := 2.1; r <= 5.0; r += 0.1 {
			m := base
			m.Rating = ptrFloat(r)
			s := Score(m)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	})

	t.Run("safety score", func(t *testing.T) {
		prev := baseScore
		for sc := 21; sc <= 100; sc++ {
			m := base
			m.SafetyScore = ptrInt(sc)
			s := Score(m)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	})
}

func TestMetricsFor(t *testing.T) {
	assert.Equal(t, Metrics{}, MetricsFor(nil))

	rating := 4.2
	user := &domain.User{CompletedJobs: 3, Rating: &rating}
	m := MetricsFor(user)
	assert.Equal(t, 3, m.CompletedJobs)
	assert.Equal(t, &rating, m.Rating)
	assert.Nil(t, m.SafetyScore)
}

func TestReliability(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{100, ReliabilityHigh},
		{80, ReliabilityHigh},
		{79, ReliabilityMedium},
		{60, ReliabilityMedium},
		{59, ReliabilityLow},
		{0, ReliabilityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Reliability(tt.score), "score %d", tt.score)
	}
}
