package Configs

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server settings, filled by LoadEnv
type ServerConfig struct {
	Port                   string
	DBDriver               string
	DBDSN                  string
	JWTSecret              string
	FirebaseCredentials    string
	Location               *time.Location
	SurveyReminderSchedule string
	LogToFile              bool
	AdminEmail             string
	AdminPassword          string
	AllowOrigins           string
}

// LoadEnv reads .env when present, then the process environment
func LoadEnv() ServerConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using the system environment")
	}

	cfg := ServerConfig{
		Port:                   GetEnv("PORT", "3000"),
		DBDriver:               GetEnv("DB_DRIVER", "sqlite"),
		DBDSN:                  GetEnv("DB_DSN", "mediflow.db"),
		JWTSecret:              GetEnv("JWT_SECRET"),
		FirebaseCredentials:    GetEnv("FIREBASE_CREDENTIALS"),
		SurveyReminderSchedule: GetEnv("SURVEY_REMINDER_SCHEDULE", "0 0 9 * * *"),
		LogToFile:              strings.EqualFold(GetEnv("LOG_TO_FILE"), "true"),
		AdminEmail:             GetEnv("ADMIN_EMAIL"),
		AdminPassword:          GetEnv("ADMIN_PASSWORD"),
		AllowOrigins:           GetEnv("CORS_ORIGINS", "*"),
	}

	tz := GetEnv("TIMEZONE", "America/Lima")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("unknown TIMEZONE %q, using UTC: %v", tz, err)
		loc = time.UTC
	}
	cfg.Location = loc

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is not set, admin sessions are disabled")
	}
	if cfg.FirebaseCredentials == "" {
		log.Println("FIREBASE_CREDENTIALS is not set, push and token verification are disabled")
	}
	return cfg
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
