package services

import (
	"delivery-dispatch-service/internal/domain"
	"math"
	"math/rand/v2"
	"time"
)

// Fitness score weights. The score is additive from baseScore and floored at zero.
const (
	baseScore              = 100.0
	workloadPenalty        = 15.0
	ratingWeight           = 5.0
	highSuccessRate        = 0.90
	highSuccessBonus       = 10.0
	goodSuccessRate        = 0.80
	goodSuccessBonus       = 5.0
	familiarityCap         = 10
	recentFamiliarityBonus = 5.0
	workingHoursBonus      = 8.0
	rejectionPenalty       = 5.0
)

// JitterSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type JitterSource interface {
	Float64() float64
}

// globalJitter draws from the goroutine-safe math/rand/v2 top-level source.
type globalJitter struct{}

func (globalJitter) Float64() float64 { return rand.Float64() }

// FixedJitter always returns the same value; use it to pin scores in tests.
type FixedJitter float64

func (f FixedJitter) Float64() float64 { return float64(f) }

type ScoringConfig struct {
	// JitterMax bounds the random tie-break term added to every score.
	JitterMax float64
	// RejectionWindow is how long a rejection keeps penalizing a staff member.
	RejectionWindow time.Duration
	// FamiliarityRecency is how recent a district delivery must be to earn the recency bonus.
	FamiliarityRecency time.Duration
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		JitterMax:          5,
		RejectionWindow:    24 * time.Hour,
		FamiliarityRecency: 7 * 24 * time.Hour,
	}
}

// ScoreBreakdown lists each additive term of a fitness score.
type ScoreBreakdown struct {
	Base         float64
	Workload     float64
	Rating       float64
	SuccessRate  float64
	Familiarity  float64
	WorkingHours float64
	Rejections   float64
	Jitter       float64
	Total        float64
}

// Scorer ranks eligible staff for a route.
type Scorer struct {
	Config ScoringConfig
	Jitter JitterSource
	Now    func() time.Time
}

func NewScorer(cfg ScoringConfig, jitter JitterSource) *Scorer {
	if jitter == nil {
		jitter = globalJitter{}
	}
	return &Scorer{Config: cfg, Jitter: jitter, Now: time.Now}
}

// Score returns the fitness of staff for a route ending in districtID,
// given how many routes the staff member is already carrying.
func (s *Scorer) Score(staff *domain.Staff, districtID string, activeRoutes int) float64 {
	return s.Breakdown(staff, districtID, activeRoutes).Total
}

func (s *Scorer) Breakdown(staff *domain.Staff, districtID string, activeRoutes int) ScoreBreakdown {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	b := ScoreBreakdown{
		Base:     baseScore,
		Workload: -workloadPenalty * float64(activeRoutes),
	}

	m := staff.DeliveryMetrics
	if m.Rating > 0 {
		b.Rating = ratingWeight * m.Rating
	}

	if rate, ok := m.SuccessRate(); ok {
		switch {
		case rate >= highSuccessRate:
			b.SuccessRate = highSuccessBonus
		case rate >= goodSuccessRate:
			b.SuccessRate = goodSuccessBonus
		}
	}

	if fd, ok := staff.FamiliarityWith(districtID); ok {
		b.Familiarity = float64(min(familiarityCap, fd.DeliveryCount))
		if fd.LastDeliveryDate != nil && now.Sub(*fd.LastDeliveryDate) <= s.Config.FamiliarityRecency {
			b.Familiarity += recentFamiliarityBonus
		}
	}

	if wh := staff.PreferredWorkingHours; wh != nil && wh.Contains(now.Hour()) {
		b.WorkingHours = workingHoursBonus
	}

	b.Rejections = -rejectionPenalty * float64(staff.RejectionsSince(now.Add(-s.Config.RejectionWindow)))

	if s.Jitter != nil && s.Config.JitterMax > 0 {
		b.Jitter = s.Config.JitterMax * s.Jitter.Float64()
	}

	total := b.Base + b.Workload + b.Rating + b.SuccessRate + b.Familiarity + b.WorkingHours + b.Rejections + b.Jitter
	b.Total = math.Max(0, total)
	return b
}

// ScoredCandidate is an eligible staff member with its fitness score.
type ScoredCandidate struct {
	Candidate
	Score float64
}

// PickBest returns the highest-scoring candidate. Ties keep the first seen.
// It panics on an empty slice; callers check eligibility first.
func PickBest(scored []ScoredCandidate) ScoredCandidate {
	best := scored[0]
	for _, c := range scored[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}
