package dto

import (
	"delivery-dispatch-service/internal/domain"
	"time"
)

type StopResponse struct {
	ShopID           string     `json:"shop_id"`
	Sequence         int        `json:"sequence"`
	Status           string     `json:"status"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	ActualArrival    *time.Time `json:"actual_arrival,omitempty"`
}

type MetricsResponse struct {
	TotalOrders           int  `json:"total_orders"`
	CompletedOrders       int  `json:"completed_orders"`
	FailedOrders          int  `json:"failed_orders"`
	ActualDurationMinutes *int `json:"actual_duration,omitempty"`
}

type RouteResponse struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Status          string          `json:"status"`
	Stops           []StopResponse  `json:"stops"`
	TotalDistanceKm float64         `json:"total_distance_km"`
	AssignedStaffID *string         `json:"assigned_staff_id"`
	AssignedAt      *time.Time      `json:"assigned_at"`
	StartedAt       *time.Time      `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
	Metrics         MetricsResponse `json:"metrics"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewRouteResponse converts a domain route into its wire shape.
func NewRouteResponse(r *domain.Route) RouteResponse {
	stops := make([]StopResponse, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, StopResponse{
			ShopID:           s.ShopID,
			Sequence:         s.Sequence,
			Status:           string(s.Status),
			EstimatedArrival: s.EstimatedArrival,
			ActualArrival:    s.ActualArrival,
		})
	}

	return RouteResponse{
		ID:              r.ID,
		Code:            r.Code,
		Status:          string(r.Status),
		Stops:           stops,
		TotalDistanceKm: r.TotalDistanceKm,
		AssignedStaffID: r.AssignedStaffID,
		AssignedAt:      r.AssignedAt,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		Metrics: MetricsResponse{
			TotalOrders:           r.Metrics.TotalOrders,
			CompletedOrders:       r.Metrics.CompletedOrders,
			FailedOrders:          r.Metrics.FailedOrders,
			ActualDurationMinutes: r.Metrics.ActualDurationMinutes,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type CreateRouteRequest struct {
	ShopIDs       []string `json:"shop_ids" validate:"required,min=1,dive,required"`
	OptimizeOrder bool     `json:"optimize_order"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type ClaimRequest struct {
	StaffID string `json:"staff_id" validate:"required"`
}

type UpdateStopRequest struct {
	Status string `json:"status" validate:"required"`
}

type AssignResponse struct {
	RouteID    string        `json:"route_id"`
	StaffID    string        `json:"staff_id"`
	ZoneID     string        `json:"zone_id"`
	Score      float64       `json:"score"`
	Candidates int           `json:"candidates"`
	Route      RouteResponse `json:"route"`
}

type BatchAssignment struct {
	RouteID string  `json:"route_id"`
	StaffID string  `json:"staff_id"`
	Score   float64 `json:"score"`
}

type BatchFailure struct {
	RouteID string `json:"route_id"`
	Error   string `json:"error"`
}

type BatchResponse struct {
	Succeeded []BatchAssignment `json:"succeeded"`
	Failed    []BatchFailure    `json:"failed"`
}

type ErrorResponse struct {
	Error     string   `json:"error"`
	Allowed   []string `json:"allowed,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}
