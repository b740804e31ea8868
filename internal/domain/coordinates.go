package domain

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Immutable geographic coordinates (latitude, longitude) in degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// DistanceTo returns the haversine great-circle distance to other in kilometers.
// The result is symmetric and zero only when both points are equal.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	if c == other {
		return 0
	}

	lat1 := toRadians(c.Lat)
	lat2 := toRadians(other.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(other.Lon - c.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Guard against rounding pushing a just past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// Distance is the free-function form of Coordinates.DistanceTo.
func Distance(a, b Coordinates) float64 { return a.DistanceTo(b) }

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
