package domain

import "time"

type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "active"
	StaffStatusInactive StaffStatus = "inactive"
)

// DeliveryMetrics accumulate over a staff member's tenure.
type DeliveryMetrics struct {
	Rating               float64 `json:"rating"`
	TotalDeliveries      int     `json:"total_deliveries"`
	SuccessfulDeliveries int     `json:"successful_deliveries"`
	FailedDeliveries     int     `json:"failed_deliveries"`
	TotalDistanceKm      float64 `json:"total_distance"`
}

// SuccessRate returns successful/total deliveries, or false when there is no history.
func (m DeliveryMetrics) SuccessRate() (float64, bool) {
	if m.TotalDeliveries <= 0 {
		return 0, false
	}
	return float64(m.SuccessfulDeliveries) / float64(m.TotalDeliveries), true
}

// FamiliarDistrict records how often a staff member has delivered into a district.
type FamiliarDistrict struct {
	DistrictID       string     `json:"district_id"`
	DeliveryCount    int        `json:"delivery_count"`
	LastDeliveryDate *time.Time `json:"last_delivery_date,omitempty"`
}

// WorkingHours is an inclusive hour window, 0-23.
// A window whose start is after its end wraps past midnight.
type WorkingHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether hour falls inside the window.
func (w WorkingHours) Contains(hour int) bool {
	if w.Start <= w.End {
		return hour >= w.Start && hour <= w.End
	}
	return hour >= w.Start || hour <= w.End
}

// Rejection is a staff member's refusal of a route.
type Rejection struct {
	RouteID    string    `json:"route_id"`
	DistrictID string    `json:"district_id"`
	RejectedAt time.Time `json:"rejected_at"`
	Reason     string    `json:"reason"`
}

// DeliveryHistory keeps every rejection; only recent ones affect scoring.
type DeliveryHistory struct {
	RecentRejections []Rejection `json:"recent_rejections"`
}

// Staff is a delivery worker.
type Staff struct {
	ID                    string
	Name                  string
	Status                StaffStatus
	DeliveryMetrics       DeliveryMetrics
	FamiliarDistricts     []FamiliarDistrict
	PreferredWorkingHours *WorkingHours
	DeliveryHistory       DeliveryHistory
}

// IsActive reports whether the staff member may receive routes.
func (s *Staff) IsActive() bool { return s.Status == StaffStatusActive }

// FamiliarityWith returns the staff member's familiarity entry for districtID.
func (s *Staff) FamiliarityWith(districtID string) (FamiliarDistrict, bool) {
	for _, fd := range s.FamiliarDistricts {
		if fd.DistrictID == districtID {
			return fd, true
		}
	}
	return FamiliarDistrict{}, false
}

// RejectionsSince counts rejections at or after since.
func (s *Staff) RejectionsSince(since time.Time) int {
	n := 0
	for _, r := range s.DeliveryHistory.RecentRejections {
		if !r.RejectedAt.Before(since) {
			n++
		}
	}
	return n
}
