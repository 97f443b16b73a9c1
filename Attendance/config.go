package Attendance

import (
	"fmt"
	"strings"

	"MediFlow/Geofence"
)

// DefaultRadiusMeters is the allowed distance from the workplace when the
// configuration does not set one
const DefaultRadiusMeters = 100

// Mode selects which remote operation a confirmation invokes
type Mode string

const (
	ModeEntrada Mode = "ENTRADA"
	ModeSalida  Mode = "SALIDA"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModeEntrada:
		return ModeEntrada, nil
	case ModeSalida:
		return ModeSalida, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
}

// Label is the action title shown to the user
func (m Mode) Label() string {
	if m == ModeSalida {
		return "Marcar salida"
	}
	return "Marcar entrada"
}

// Config is fixed for the whole session
type Config struct {
	WorkplaceLat          float64 `json:"workplace_lat" validate:"latitude"`
	WorkplaceLon          float64 `json:"workplace_lon" validate:"longitude"`
	WorkplaceRadiusMeters float64 `json:"workplace_radius_meters" validate:"gt=0"`
	Turno                 string  `json:"turno"`
}

func (c Config) Zone() Geofence.Zone {
	return Geofence.Zone{Lat: c.WorkplaceLat, Lon: c.WorkplaceLon, RadiusMeters: c.WorkplaceRadiusMeters}
}
