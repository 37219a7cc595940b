package geo

import (
	"math"

	"github.com/umahmood/haversine"
)

// EarthRadiusKm is the mean radius of Earth used for haversine distance.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat is the approximate length of one degree of latitude.
const KmPerDegreeLat = 111.32

// minCosLat bounds the longitude delta near the poles.
const minCosLat = 0.01

// Box is an axis-aligned latitude/longitude rectangle in degrees.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point lies inside the box (inclusive).
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// HaversineKm returns the great-circle distance in kilometers between two
// points given in degrees. The kernel's built-in radius equals EarthRadiusKm.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: lat1, Lon: lon1},
		haversine.Coord{Lat: lat2, Lon: lon2},
	)
	return km
}

// BoundingBoxForRadius returns a box that contains every point within
// radiusKm of (lat, lon). The nominal deltas are radiusKm/111.32 degrees of
// latitude and radiusKm/(111.32*cos(lat)) of longitude, widened to the exact
// spherical cap extent when that is larger so no point within the radius
// falls outside. A cap reaching a pole spans all longitudes. The box is
// clamped to valid coordinate ranges.
func BoundingBoxForRadius(lat, lon, radiusKm float64) Box {
	angular := radiusKm / EarthRadiusKm
	capLat := angular * 180 / math.Pi

	deltaLat := math.Max(radiusKm/KmPerDegreeLat, capLat)

	cosLat := math.Cos(lat * math.Pi / 180)
	if math.Abs(cosLat) < minCosLat {
		cosLat = minCosLat
	}
	deltaLon := radiusKm / (KmPerDegreeLat * math.Abs(cosLat))

	if math.Abs(lat)+capLat >= 90 || angular >= math.Pi/2 {
		deltaLon = 360
	} else if s := math.Sin(angular) / math.Abs(cosLat); s >= 1 {
		deltaLon = 360
	} else {
		deltaLon = math.Max(deltaLon, math.Asin(s)*180/math.Pi)
	}

	return Box{
		MinLat: math.Max(lat-deltaLat, -90),
		MaxLat: math.Min(lat+deltaLat, 90),
		MinLon: math.Max(lon-deltaLon, -180),
		MaxLon: math.Min(lon+deltaLon, 180),
	}
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
// NaN and infinities are rejected.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
