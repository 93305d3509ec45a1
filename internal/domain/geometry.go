package domain

import "math"

// EarthRadiusMeters is the mean spherical Earth radius. The engine treats
// Earth as a sphere; ellipsoidal corrections are far below the accuracy of
// the forecast grid (1 degree cells).
const EarthRadiusMeters = 6371000.0

// LookResult describes where an observer must look to see a target above
// the Earth's surface. It is derived on demand and never persisted.
type LookResult struct {
	// AzimuthDegrees is the compass bearing to the target, degrees
	// clockwise from true north, normalized to [0, 360).
	AzimuthDegrees float64 `json:"azimuth_deg"`

	// ElevationDegrees is the angle above (positive) or below (negative)
	// the observer's local horizon, in [-90, 90].
	ElevationDegrees float64 `json:"elevation_deg"`

	// SurfaceDistanceMeters is the great-circle distance along the surface.
	SurfaceDistanceMeters float64 `json:"surface_distance_m"`
}

// ComputeLookGeometry returns the bearing, elevation angle, and surface
// distance from an observer to a target at targetAltMeters above the
// spherical surface. Latitudes and longitudes are degrees, altitudes meters.
//
// The surface distance comes from the haversine central angle and the
// azimuth from the standard initial-bearing formula. Elevation is the angle
// between the observer's local tangent plane and the straight-line chord
// from the observer (at R+observerAlt) to the target (at R+targetAlt): as
// distance grows, curvature drops the target below the horizon and the
// elevation goes negative even for high targets.
//
// No refraction, atmospheric, or terrain correction is applied. Identical
// coordinates yield distance 0, elevation +90, and azimuth 0 (the azimuth is
// geometrically undefined there, so a stable sentinel is used instead of
// letting NaN propagate). Pure function, safe at arbitrary call frequency.
func ComputeLookGeometry(observerLat, observerLon, observerAltMeters, targetLat, targetLon, targetAltMeters float64) LookResult {
	phi1 := radians(observerLat)
	phi2 := radians(targetLat)
	deltaPhi := radians(targetLat - observerLat)
	deltaLambda := radians(targetLon - observerLon)

	// Haversine central angle between observer and target.
	sinPhi := math.Sin(deltaPhi / 2)
	sinLambda := math.Sin(deltaLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	central := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	if central == 0 {
		return LookResult{AzimuthDegrees: 0, ElevationDegrees: 90, SurfaceDistanceMeters: 0}
	}

	// Initial bearing from observer to target.
	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)
	azimuth := normalizeDegrees(degrees(math.Atan2(y, x)))

	// Place the target at radius R+targetAlt, central angle away from the
	// observer at radius R+observerAlt, and measure the chord's angle
	// against the observer's local horizontal.
	observerRadius := EarthRadiusMeters + observerAltMeters
	targetRadius := EarthRadiusMeters + targetAltMeters
	horizontal := targetRadius * math.Sin(central)
	vertical := targetRadius*math.Cos(central) - observerRadius
	elevation := degrees(math.Atan2(vertical, horizontal))

	return LookResult{
		AzimuthDegrees:        azimuth,
		ElevationDegrees:      elevation,
		SurfaceDistanceMeters: EarthRadiusMeters * central,
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// normalizeDegrees wraps an angle into [0, 360).
func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
