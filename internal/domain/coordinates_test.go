package domain

import (
	"math"
	"testing"
)

func TestCoordinatesDistanceTo(t *testing.T) {
	points := []Coordinates{
		{Lat: 10.7769, Lon: 106.7009}, // Ho Chi Minh City
		{Lat: 21.0285, Lon: 105.8542}, // Hanoi
		{Lat: 33.4484, Lon: -112.0740},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 180},
		{Lat: 89.9, Lon: -45},
	}

	for _, a := range points {
		if d := a.DistanceTo(a); d != 0 {
			t.Errorf("distance(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			ab := a.DistanceTo(b)
			ba := b.DistanceTo(a)
			if ab != ba {
				t.Errorf("distance not symmetric: %v->%v = %v, %v->%v = %v", a, b, ab, b, a, ba)
			}
			if a != b && ab <= 0 {
				t.Errorf("distance(%v, %v) = %v, want > 0", a, b, ab)
			}
		}
	}
}

func TestCoordinatesDistanceToKnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinates
		want float64
		tol  float64
	}{
		{
			name: "one degree of latitude",
			a:    Coordinates{Lat: 0, Lon: 0},
			b:    Coordinates{Lat: 1, Lon: 0},
			want: 2 * math.Pi * EarthRadiusKm / 360,
			tol:  1e-9,
		},
		{
			name: "half circumference",
			a:    Coordinates{Lat: 0, Lon: 0},
			b:    Coordinates{Lat: 0, Lon: 180},
			want: math.Pi * EarthRadiusKm,
			tol:  1e-6,
		},
		{
			name: "saigon to hanoi",
			a:    Coordinates{Lat: 10.7769, Lon: 106.7009},
			b:    Coordinates{Lat: 21.0285, Lon: 105.8542},
			want: 1141,
			tol:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Fatalf("distance = %.4f km, want %.4f ± %.4f", got, tt.want, tt.tol)
			}
		})
	}
}
