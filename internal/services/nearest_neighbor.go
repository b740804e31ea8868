package services

import (
	"delivery-dispatch-service/internal/domain"
	"errors"
	"math"
)

// ShopPoint is a shop id with its coordinates, as input to stop ordering.
type ShopPoint struct {
	ShopID string
	At     domain.Coordinates
}

// NearestNeighborOrder orders stops with a greedy nearest-neighbor walk.
//
// The first point is the fixed origin. At each step the closest remaining stop
// by great-circle distance is visited next. It does not attempt global
// optimization; the design prioritizes determinism and simplicity.
func NearestNeighborOrder(points []ShopPoint) ([]ShopPoint, error) {
	if len(points) == 0 {
		return nil, errors.New("order stops: point list must be non-empty")
	}

	ordered := make([]ShopPoint, 0, len(points))
	ordered = append(ordered, points[0])

	remaining := make([]ShopPoint, len(points)-1)
	copy(remaining, points[1:])

	current := points[0]
	for len(remaining) > 0 {
		bestIdx := -1
		minDist := math.MaxFloat64

		// Select next stop by minimum distance (greedy step).
		for i, p := range remaining {
			d := current.At.DistanceTo(p.At)
			// Tie-breaker ensures deterministic ordering when distances are equal.
			if bestIdx < 0 || d < minDist || (d == minDist && p.ShopID < remaining[bestIdx].ShopID) {
				minDist = d
				bestIdx = i
			}
		}

		current = remaining[bestIdx]
		ordered = append(ordered, current)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return ordered, nil
}
