package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"MediFlow/Models"

	"github.com/gofiber/fiber/v2"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	Console bool
	File    bool
	// Log file path
	LogFilePath string
	// "json" or "text"
	Format    string
	SkipPaths []string
}

type LogData struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	URL       string        `json:"url"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	IP        string        `json:"ip"`
	UserAgent string        `json:"user_agent"`
	RequestID string        `json:"request_id"`
	Error     string        `json:"error,omitempty"`
	// firebase uid of a client request or admin email
	Principal string `json:"principal,omitempty"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:     true,
		File:        false,
		LogFilePath: "logs/requests.log",
		Format:      "text",
		SkipPaths:   []string{"/health"},
	}
}

// LoggingMiddleware logs one line per request. It must run after the
// requestid middleware to pick up the request id.
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.File {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
		}
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] {
			return c.Next()
		}
		start := time.Now()

		err := c.Next()

		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			URL:       c.OriginalURL(),
			Status:    c.Response().StatusCode(),
			Latency:   time.Since(start),
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			RequestID: c.GetRespHeader(fiber.HeaderXRequestID),
			Principal: principal(c),
		}
		if err != nil {
			data.Error = err.Error()
		}
		logRequest(cfg, data)
		return err
	}
}

func principal(c *fiber.Ctx) string {
	if uid, ok := c.Locals("uid").(string); ok {
		return uid
	}
	if admin, ok := c.Locals("admin").(Models.AdminUser); ok {
		return admin.Email
	}
	return ""
}

// logRequest writes the console line in cfg.Format. File lines are always
// JSON so the admin log viewer can read them back.
func logRequest(cfg LogConfig, data LogData) {
	if cfg.Console {
		if cfg.Format == "json" {
			log.Println(jsonLine(data))
		} else {
			log.Println(formatTextLog(data))
		}
	}
	if cfg.File {
		logToFile(cfg.LogFilePath, jsonLine(data))
	}
}

func jsonLine(data LogData) string {
	raw, _ := json.Marshal(data)
	return string(raw)
}

func formatTextLog(data LogData) string {
	who := ""
	if data.Principal != "" {
		who = " by:" + data.Principal
	}
	return fmt.Sprintf(
		"%s %s %d %s %s rid=%s%s",
		data.Method,
		data.Path,
		data.Status,
		data.Latency,
		data.IP,
		data.RequestID,
		who,
	)
}

func logToFile(filePath, message string) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if len(message) > 0 && message[len(message)-1] != '\n' {
		message += "\n"
	}
	if _, err := file.WriteString(message); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}

// RequestLogger is the default request logger of the API
func RequestLogger(toFile bool) fiber.Handler {
	cfg := DefaultLogConfig()
	cfg.File = toFile
	return LoggingMiddleware(cfg)
}
