package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"MediFlow/middleware"
)

// LogGroup aggregates the requests of one method and path
type LogGroup struct {
	Path        string  `json:"path"`
	Method      string  `json:"method"`
	Count       int     `json:"count"`
	AvgLatency  float64 `json:"avg_latency_ms"`
	MinLatency  float64 `json:"min_latency_ms"`
	MaxLatency  float64 `json:"max_latency_ms"`
	SuccessRate float64 `json:"success_rate"`

	latencySum float64
	successes  int
}

type LogsResponse struct {
	Groups      []LogGroup           `json:"groups"`
	Recent      []middleware.LogData `json:"recent"`
	TotalLogs   int                  `json:"total_logs"`
	TotalGroups int                  `json:"total_groups"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	TotalPages  int                  `json:"total_pages"`
	DateFrom    time.Time            `json:"date_from"`
	DateTo      time.Time            `json:"date_to"`
}

// RequestLogController serves the request log written by the logging
// middleware
type RequestLogController struct {
	FilePath string
	Location *time.Location
	Now      func() time.Time
}

func NewRequestLogController(filePath string, loc *time.Location) *RequestLogController {
	if loc == nil {
		loc = time.Local
	}
	return &RequestLogController{FilePath: filePath, Location: loc, Now: time.Now}
}

type logFilter struct {
	from, to  time.Time
	path      string
	method    string
	status    int
	principal string
}

// GetLogs groups the requests between date_from and date_to (today by
// default) by method and path, busiest first
func (c *RequestLogController) GetLogs(ctx *fiber.Ctx) error {
	filter, err := c.parseFilter(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	entries, err := readLogFile(c.FilePath, filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}
	groups := groupLogs(entries)

	total := len(groups)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	// newest first
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	recent := entries
	if len(recent) > 20 {
		recent = recent[:20]
	}

	return ctx.JSON(LogsResponse{
		Groups:      groups[start:end],
		Recent:      recent,
		TotalLogs:   len(entries),
		TotalGroups: total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (total + pageSize - 1) / pageSize,
		DateFrom:    filter.from,
		DateTo:      filter.to,
	})
}

func (c *RequestLogController) parseFilter(ctx *fiber.Ctx) (logFilter, error) {
	now := c.Now().In(c.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location)
	f := logFilter{
		from:      today,
		to:        today.AddDate(0, 0, 1),
		path:      strings.ToLower(ctx.Query("path")),
		method:    strings.ToUpper(ctx.Query("method")),
		principal: ctx.Query("principal"),
	}
	if raw := ctx.Query("date_from"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, c.Location)
		if err != nil {
			return f, errors.New("Invalid date_from format. Use YYYY-MM-DD")
		}
		f.from = d
	}
	if raw := ctx.Query("date_to"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, c.Location)
		if err != nil {
			return f, errors.New("Invalid date_to format. Use YYYY-MM-DD")
		}
		f.to = d.AddDate(0, 0, 1)
	}
	if raw := ctx.Query("status"); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("Invalid status")
		}
		f.status = status
	}
	return f, nil
}

func (f logFilter) match(e middleware.LogData) bool {
	switch {
	case e.Timestamp.Before(f.from) || !e.Timestamp.Before(f.to):
		return false
	case f.path != "" && !strings.Contains(strings.ToLower(e.Path), f.path):
		return false
	case f.method != "" && e.Method != f.method:
		return false
	case f.status != 0 && e.Status != f.status:
		return false
	case f.principal != "" && e.Principal != f.principal:
		return false
	}
	return true
}

// readLogFile returns the matching JSON lines. A missing file is an empty log;
// lines that are not JSON are skipped.
func readLogFile(path string, filter logFilter) ([]middleware.LogData, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []middleware.LogData
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if filter.match(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

func groupLogs(entries []middleware.LogData) []LogGroup {
	byKey := make(map[string]*LogGroup)
	for _, e := range entries {
		key := fmt.Sprintf("%s %s", e.Method, e.Path)
		latency := float64(e.Latency.Microseconds()) / 1000.0
		g, ok := byKey[key]
		if !ok {
			g = &LogGroup{Path: e.Path, Method: e.Method, MinLatency: latency}
			byKey[key] = g
		}
		g.Count++
		g.latencySum += latency
		if latency < g.MinLatency {
			g.MinLatency = latency
		}
		if latency > g.MaxLatency {
			g.MaxLatency = latency
		}
		if e.Status >= 200 && e.Status < 300 {
			g.successes++
		}
	}

	groups := make([]LogGroup, 0, len(byKey))
	for _, g := range byKey {
		g.AvgLatency = g.latencySum / float64(g.Count)
		g.SuccessRate = float64(g.successes) / float64(g.Count)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Method+groups[i].Path < groups[j].Method+groups[j].Path
	})
	return groups
}
