package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Point is a coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this point in stores.
func (p Point) Key() string {
	return fmt.Sprintf("%.4f:%.4f", p.Lat, p.Lon)
}

// Distance returns the great-circle distance in kilometers between two
// coordinates given in degrees, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceTo is Distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	return Distance(p.Lat, p.Lon, q.Lat, q.Lon)
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
