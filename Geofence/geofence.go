package Geofence

import "math"

// Mean Earth radius in meters
const earthRadiusMeters = 6371008.8

// Position is a device fix reported by the location provider
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Zone represents the circular boundary around a workplace
type Zone struct {
	Lat          float64 `json:"lat" validate:"latitude"`
	Lon          float64 `json:"lon" validate:"longitude"`
	RadiusMeters float64 `json:"radius_meters" validate:"gt=0"`
}

// Result is the classification of a position against a Zone.
// DistanceMeters is nil when no fix was available.
type Result struct {
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	InsideZone     bool     `json:"inside_zone"`
}

// Location status labels shown next to the check-in controls
const (
	StatusNoLocation = "sin_ubicacion"
	StatusInside     = "dentro"
	StatusOutside    = "fuera"
)

// DistanceTo calculates the great-circle distance in meters between the position
// and the zone center using the Haversine formula
func DistanceTo(p Position, z Zone) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := z.Lat * math.Pi / 180
	dLat := (z.Lat - p.Lat) * math.Pi / 180
	dLon := (z.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Evaluate checks whether the position falls inside the zone. The radius is inclusive.
func Evaluate(p *Position, z Zone) Result {
	if p == nil {
		return Result{}
	}
	distance := DistanceTo(*p, z)
	return Result{
		DistanceMeters: &distance,
		InsideZone:     distance <= z.RadiusMeters,
	}
}

// Status returns the location label for the result
func (r Result) Status() string {
	switch {
	case r.DistanceMeters == nil:
		return StatusNoLocation
	case r.InsideZone:
		return StatusInside
	default:
		return StatusOutside
	}
}
