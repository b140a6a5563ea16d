// Package geo holds great-circle math for map queries.
package geo

import "math"

const EarthRadiusKm = 6371.0

// DistanceKm is the haversine distance between two lat/lng points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Within reports whether (lat, lng) lies inside radiusKm of the center,
// boundary included.
func Within(centerLat, centerLng, radiusKm, lat, lng float64) bool {
	return DistanceKm(centerLat, centerLng, lat, lng) <= radiusKm
}
