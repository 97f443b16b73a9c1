package Configs

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"MediFlow/Attendance"
)

// ClientConfig is the check-in client configuration. It is read once at
// startup and never changes afterwards.
type ClientConfig struct {
	BaseURL        string  `json:"base_url" validate:"required,url"`
	FirebaseAPIKey string  `json:"firebase_api_key"`
	WorkplaceLat   float64 `json:"workplace_lat" validate:"latitude"`
	WorkplaceLon   float64 `json:"workplace_lon" validate:"longitude"`
	RadiusMeters   float64 `json:"radius_meters" validate:"gt=0"`
	Turno          string  `json:"turno"`
	Device         string  `json:"device"`
	PreferencesDB  string  `json:"preferences_db"`
	Timezone       string  `json:"timezone"`
}

func (c ClientConfig) Attendance() Attendance.Config {
	return Attendance.Config{
		WorkplaceLat:          c.WorkplaceLat,
		WorkplaceLon:          c.WorkplaceLon,
		WorkplaceRadiusMeters: c.RadiusMeters,
		Turno:                 c.Turno,
	}
}

var validate = validator.New()

func LoadClientConfig(path string) (ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("read client config: %w", err)
	}
	return ParseClientConfig(raw)
}

// ParseClientConfig decodes JSON5 (comments and trailing commas allowed) and
// fills defaults before validating
func ParseClientConfig(raw []byte) (ClientConfig, error) {
	var cfg ClientConfig
	if err := json5.Unmarshal(raw, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse client config: %w", err)
	}
	if cfg.RadiusMeters == 0 {
		cfg.RadiusMeters = Attendance.DefaultRadiusMeters
	}
	if cfg.PreferencesDB == "" {
		cfg.PreferencesDB = "mediflow_prefs.db"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := validate.Struct(cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("invalid client config: %w", err)
	}
	return cfg, nil
}
