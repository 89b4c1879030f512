package tool

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/model"
)

// Args is the untyped argument map sent by the model
type Args map[string]string

// RequireString returns the trimmed value of a required parameter
func (a Args) RequireString(name string) (string, error) {
	v := strings.TrimSpace(a[name])
	if v == "" {
		return "", goerr.Wrap(model.ErrInvalidArgument, "missing required parameter "+strconv.Quote(name), goerr.V("param", name))
	}
	return v, nil
}

// String returns the trimmed value or an empty string when absent
func (a Args) String(name string) string {
	return strings.TrimSpace(a[name])
}

// Int parses an integer parameter, falling back to def when absent or
// malformed. Values such as "7.0" are accepted.
func (a Args) Int(name string, def int) int {
	raw := strings.TrimSpace(a[name])
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		return int(f)
	}
	return def
}

// List splits a comma separated parameter, trimming entries and dropping
// empty ones. An absent value yields an empty list.
func (a Args) List(name string) []string {
	items := []string{}
	for _, s := range strings.Split(a[name], ",") {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	return items
}

type dateParts struct {
	Year   *int `json:"year"`
	Month  *int `json:"month"`
	Day    *int `json:"day"`
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
}

// Date parses a date object such as {"year":2025,"month":9,"day":7,"hour":14,"minute":0}
// where month is 0-based. ok is false when the value is absent, malformed,
// incomplete or out of range.
func (a Args) Date(name string, loc *time.Location) (t time.Time, ok bool) {
	raw := strings.TrimSpace(a[name])
	if raw == "" {
		return time.Time{}, false
	}

	var p dateParts
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return time.Time{}, false
	}
	if p.Year == nil || p.Month == nil || p.Day == nil || p.Hour == nil || p.Minute == nil {
		return time.Time{}, false
	}
	if *p.Month < 0 || *p.Month > 11 || *p.Hour < 0 || *p.Hour > 23 || *p.Minute < 0 || *p.Minute > 59 {
		return time.Time{}, false
	}

	month := time.Month(*p.Month + 1)
	if *p.Day < 1 || *p.Day > daysIn(*p.Year, month) {
		return time.Time{}, false
	}

	if loc == nil {
		loc = time.Local
	}
	return time.Date(*p.Year, month, *p.Day, *p.Hour, *p.Minute, 0, 0, loc), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampInt bounds v into [lo, hi]
func ClampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
