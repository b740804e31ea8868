package services

import (
	"delivery-dispatch-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScorer(jitter float64) *Scorer {
	return &Scorer{
		Config: DefaultScoringConfig(),
		Jitter: FixedJitter(jitter),
		Now:    func() time.Time { return testNow },
	}
}

func ago(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}

func TestScorer_BaseScore(t *testing.T) {
	s := newTestScorer(0)
	staff := &domain.Staff{ID: "s1", Status: domain.StaffStatusActive}

	require.Equal(t, 100.0, s.Score(staff, "d1", 0))
	require.Equal(t, 70.0, s.Score(staff, "d1", 2))
}

func TestScorer_Breakdown(t *testing.T) {
	s := newTestScorer(0)
	staff := &domain.Staff{
		ID:     "s1",
		Status: domain.StaffStatusActive,
		DeliveryMetrics: domain.DeliveryMetrics{
			Rating:               4.5,
			TotalDeliveries:      10,
			SuccessfulDeliveries: 9,
		},
		FamiliarDistricts: []domain.FamiliarDistrict{
			{DistrictID: "d1", DeliveryCount: 12, LastDeliveryDate: ago(48 * time.Hour)},
			{DistrictID: "d2", DeliveryCount: 3},
		},
		PreferredWorkingHours: &domain.WorkingHours{Start: 8, End: 18},
		DeliveryHistory: domain.DeliveryHistory{RecentRejections: []domain.Rejection{
			{RouteID: "r1", RejectedAt: testNow.Add(-time.Hour)},
			{RouteID: "r2", RejectedAt: testNow.Add(-23 * time.Hour)},
			{RouteID: "r3", RejectedAt: testNow.Add(-30 * time.Hour)},
		}},
	}

	b := s.Breakdown(staff, "d1", 1)
	require.Equal(t, 100.0, b.Base)
	require.Equal(t, -15.0, b.Workload)
	require.InDelta(t, 22.5, b.Rating, 1e-9)
	require.Equal(t, 10.0, b.SuccessRate)
	require.Equal(t, 15.0, b.Familiarity, "capped count plus recency bonus")
	require.Equal(t, 8.0, b.WorkingHours)
	require.Equal(t, -10.0, b.Rejections, "only rejections inside the window count")
	require.Equal(t, 0.0, b.Jitter)
	require.InDelta(t, 130.5, b.Total, 1e-9)

	other := s.Breakdown(staff, "d2", 1)
	require.Equal(t, 3.0, other.Familiarity)
}

func TestScorer_SuccessRateTiers(t *testing.T) {
	s := newTestScorer(0)

	cases := []struct {
		name      string
		total, ok int
		wantBonus float64
	}{
		{"no history", 0, 0, 0},
		{"excellent", 20, 18, 10},
		{"good", 20, 17, 5},
		{"boundary good", 10, 8, 5},
		{"poor", 10, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			staff := &domain.Staff{DeliveryMetrics: domain.DeliveryMetrics{
				TotalDeliveries:      tc.total,
				SuccessfulDeliveries: tc.ok,
			}}
			require.Equal(t, tc.wantBonus, s.Breakdown(staff, "d1", 0).SuccessRate)
		})
	}
}

func TestScorer_StaleFamiliarityEarnsNoRecencyBonus(t *testing.T) {
	s := newTestScorer(0)
	staff := &domain.Staff{FamiliarDistricts: []domain.FamiliarDistrict{
		{DistrictID: "d1", DeliveryCount: 4, LastDeliveryDate: ago(8 * 24 * time.Hour)},
	}}

	require.Equal(t, 4.0, s.Breakdown(staff, "d1", 0).Familiarity)
}

func TestScorer_OvernightShift(t *testing.T) {
	s := newTestScorer(0)
	s.Now = func() time.Time { return time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC) }
	staff := &domain.Staff{PreferredWorkingHours: &domain.WorkingHours{Start: 22, End: 6}}

	require.Equal(t, 8.0, s.Breakdown(staff, "d1", 0).WorkingHours)

	s.Now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	require.Equal(t, 0.0, s.Breakdown(staff, "d1", 0).WorkingHours)
}

func TestScorer_NeverNegative(t *testing.T) {
	s := newTestScorer(0)
	staff := &domain.Staff{}

	require.Equal(t, 0.0, s.Score(staff, "d1", 8))
}

func TestScorer_JitterIsBounded(t *testing.T) {
	staff := &domain.Staff{}

	require.InDelta(t, 102.5, newTestScorer(0.5).Score(staff, "d1", 0), 1e-9)

	// Real randomness stays inside [0, JitterMax).
	s := NewScorer(DefaultScoringConfig(), nil)
	s.Now = func() time.Time { return testNow }
	for range 100 {
		got := s.Score(staff, "d1", 0)
		require.GreaterOrEqual(t, got, 100.0)
		require.Less(t, got, 105.0)
	}
}

func TestScorer_LighterWorkloadRanksHigher(t *testing.T) {
	s := newTestScorer(0)
	staff := &domain.Staff{DeliveryMetrics: domain.DeliveryMetrics{Rating: 5}}

	for k := 0; k < 6; k++ {
		require.Greater(t, s.Score(staff, "d1", k), s.Score(staff, "d1", k+1))
	}
}

func TestPickBest_TieKeepsFirstSeen(t *testing.T) {
	a := ScoredCandidate{Candidate: Candidate{Staff: &domain.Staff{ID: "a"}}, Score: 90}
	b := ScoredCandidate{Candidate: Candidate{Staff: &domain.Staff{ID: "b"}}, Score: 95}
	c := ScoredCandidate{Candidate: Candidate{Staff: &domain.Staff{ID: "c"}}, Score: 95}

	require.Equal(t, "b", PickBest([]ScoredCandidate{a, b, c}).Staff.ID)
	require.Equal(t, "c", PickBest([]ScoredCandidate{c, b, a}).Staff.ID)
}
