package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"

	"Invoicing/Billing"
)

// RequestLog is one event written by the request logging middleware.
type RequestLog struct {
	Time      time.Time `json:"time"`
	Level     string    `json:"level"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	LatencyMs float64   `json:"latency"`
	IP        string    `json:"ip"`
	RequestID string    `json:"request_id,omitempty"`
	UserID    uint      `json:"user_id,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// RequestLogGroup aggregates the requests made to one route.
type RequestLogGroup struct {
	Method       string       `json:"method"`
	Path         string       `json:"path"`
	Count        int          `json:"count"`
	AvgLatencyMs float64      `json:"avg_latency_ms"`
	MaxLatencyMs float64      `json:"max_latency_ms"`
	SuccessRate  float64      `json:"success_rate"`
	Logs         []RequestLog `json:"logs,omitempty"`
}

// LogController reads back the JSON request log. It only has data when
// LOG_FORMAT=json and LOG_OUTPUT names a file.
type LogController struct {
	Path string
	Now  func() time.Time
}

func NewLogController(path string) *LogController {
	return &LogController{Path: path, Now: time.Now}
}

// ReadRequestLogs returns request events between from and to, inclusive.
// Lines that are not request events are skipped.
func ReadRequestLogs(r io.Reader, from, to time.Time) ([]RequestLog, error) {
	var logs []RequestLog
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry struct {
			RequestLog
			Message string `json:"message"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil || entry.Message != "request" {
			continue
		}
		if entry.Time.Before(from) || entry.Time.After(to) {
			continue
		}
		logs = append(logs, entry.RequestLog)
	}
	return logs, scanner.Err()
}

func filterRequestLogs(logs []RequestLog, path, method string, status int) []RequestLog {
	out := logs[:0:0]
	for _, l := range logs {
		if path != "" && l.Path != path {
			continue
		}
		if method != "" && l.Method != method {
			continue
		}
		if status != 0 && l.Status != status {
			continue
		}
		out = append(out, l)
	}
	return out
}

// GroupRequestLogs groups by method and path, busiest route first.
func GroupRequestLogs(logs []RequestLog) []RequestLogGroup {
	byKey := make(map[string]*RequestLogGroup)
	var keys []string
	for _, l := range logs {
		key := l.Method + " " + l.Path
		g, ok := byKey[key]
		if !ok {
			g = &RequestLogGroup{Method: l.Method, Path: l.Path}
			byKey[key] = g
			keys = append(keys, key)
		}
		g.Count++
		g.AvgLatencyMs += (l.LatencyMs - g.AvgLatencyMs) / float64(g.Count)
		if l.LatencyMs > g.MaxLatencyMs {
			g.MaxLatencyMs = l.LatencyMs
		}
		if l.Status >= 200 && l.Status < 300 {
			g.SuccessRate++
		}
		g.Logs = append(g.Logs, l)
	}

	groups := make([]RequestLogGroup, 0, len(keys))
	for _, k := range keys {
		g := byKey[k]
		g.SuccessRate /= float64(g.Count)
		groups = append(groups, *g)
	}
	slices.SortStableFunc(groups, func(a, b RequestLogGroup) int { return b.Count - a.Count })
	return groups
}

// window reads date_from/date_to, defaulting to today.
func (lc *LogController) window(c *fiber.Ctx) (time.Time, time.Time, error) {
	day := today(lc.Now())
	from, err := parseDate(c.Query("date_from"), day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(c.Query("date_to"), day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func (lc *LogController) read(c *fiber.Ctx) ([]RequestLog, error) {
	from, to, err := lc.window(c)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(lc.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Billing.FailedPrecondition("readLogs", "no request log file at %q, set LOG_OUTPUT and LOG_FORMAT=json", lc.Path)
		}
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}
	defer f.Close()
	return ReadRequestLogs(f, from, to)
}

// GetLogs returns request logs grouped by route
// GET /api/logs?date_from=&date_to=&path=&method=&status=&page=1&limit=10
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	logs, err := lc.read(c)
	if err != nil {
		return respondError(c, err)
	}
	status, _ := strconv.Atoi(c.Query("status"))
	groups := GroupRequestLogs(filterRequestLogs(logs, c.Query("path"), c.Query("method"), status))

	page, limit, offset := paginate(c)
	end := offset + limit
	if offset > len(groups) {
		offset = len(groups)
	}
	if end > len(groups) {
		end = len(groups)
	}
	return c.JSON(fiber.Map{
		"data":       groups[offset:end],
		"pagination": pagination(page, limit, int64(len(groups))),
	})
}

// GetLogStats summarises request volume, errors and the slowest routes
// GET /api/logs/stats?date_from=&date_to=
func (lc *LogController) GetLogStats(c *fiber.Ctx) error {
	logs, err := lc.read(c)
	if err != nil {
		return respondError(c, err)
	}

	byStatus := map[string]int{"2xx": 0, "3xx": 0, "4xx": 0, "5xx": 0}
	for _, l := range logs {
		if l.Status >= 200 && l.Status < 600 {
			byStatus[strconv.Itoa(l.Status/100)+"xx"]++
		}
	}

	groups := GroupRequestLogs(logs)
	slices.SortStableFunc(groups, func(a, b RequestLogGroup) int {
		switch {
		case a.AvgLatencyMs > b.AvgLatencyMs:
			return -1
		case a.AvgLatencyMs < b.AvgLatencyMs:
			return 1
		}
		return 0
	})
	if len(groups) > 5 {
		groups = groups[:5]
	}
	for i := range groups {
		groups[i].Logs = nil
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"total":     len(logs),
		"by_status": byStatus,
		"slowest":   groups,
	}})
}
