package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL limits.
const (
	// DefaultTTLSeconds is one day; the question store changes rarely.
	DefaultTTLSeconds = 86400

	MinTTLSeconds = 60
	MaxTTLSeconds = 30 * 86400
)

const day = 24 * time.Hour

// ErrInvalidTTL is returned for a TTL outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// ValidateTTL checks that seconds is inside the allowed range.
func ValidateTTL(seconds int) error {
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return nil
}

// ParseTTL accepts integer seconds ("3600"), whole days ("7d") or a Go
// duration ("12h", "1h30m").
func ParseTTL(s string) (int, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.Atoi(s); err == nil {
		return seconds, ValidateTTL(seconds)
	}

	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid TTL %q: %w", s, err)
		}
		d = time.Duration(n) * day
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid TTL %q: %w", s, err)
		}
		d = parsed
	}

	seconds := int(d / time.Second)
	return seconds, ValidateTTL(seconds)
}

// FormatDuration renders d with its two largest units: "45s", "30m",
// "5h20m", "2d3h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
	}
	units := []struct {
		size   time.Duration
		suffix string
	}{
		{day, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
	}
	var b strings.Builder
	parts := 0
	for _, u := range units {
		if parts == 2 {
			break
		}
		n := d / u.size
		if n == 0 && parts == 0 {
			continue
		}
		d -= n * u.size
		parts++
		if n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.suffix)
		}
	}
	return b.String()
}
