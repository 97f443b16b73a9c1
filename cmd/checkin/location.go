package main

import (
	"context"
	"math"

	"MediFlow/Geofence"
)

// fixedLocation reports the coordinates given on the command line. Without
// them location permission counts as denied.
type fixedLocation struct {
	pos *Geofence.Position
}

func (f fixedLocation) RequestPermission(context.Context) (bool, error) {
	return f.pos != nil, nil
}

func (f fixedLocation) LastKnownPosition(context.Context) (*Geofence.Position, error) {
	if f.pos == nil {
		return nil, nil
	}
	p := *f.pos
	return &p, nil
}

func position(lat, lon float64) *Geofence.Position {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return nil
	}
	return &Geofence.Position{Lat: lat, Lon: lon}
}
