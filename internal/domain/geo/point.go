// internal/domain/geo/point.go

package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned when a latitude or longitude is
// non-finite or outside the valid range. Coordinates are never clamped.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// EarthRadiusKm is the mean radius of the Earth used for distance
// computation. The model is a sphere, not an ellipsoid; the error is
// below 0.5% which is acceptable for proximity search.
const EarthRadiusKm = 6371.0

// Point is an immutable latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// New validates lat/lng and returns a Point. Latitude must be in
// [-90, 90], longitude in [-180, 180], both finite.
func New(lat, lng float64) (Point, error) {
	if err := Validate(lat, lng); err != nil {
		return Point{}, err
	}
	return Point{Latitude: lat, Longitude: lng}, nil
}

// Validate checks coordinate ranges without constructing a Point.
func Validate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90,90]", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180,180]", ErrInvalidCoordinate, lng)
	}
	return nil
}

// DistanceKm returns the great-circle distance between two points in
// kilometers, computed with the Haversine formula.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// DistanceKm returns the distance from p to other in kilometers.
func (p Point) DistanceKm(other Point) float64 {
	return DistanceKm(p, other)
}

// WithinKm reports whether other lies within radiusKm of p.
func (p Point) WithinKm(other Point, radiusKm float64) bool {
	return DistanceKm(p, other) <= radiusKm
}
