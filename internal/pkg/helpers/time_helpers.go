package helpers

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// DateLayout is the query-string date format.
const DateLayout = "2006-01-02"

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// ParseDate parses YYYY-MM-DD in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DaysBetween returns whole days elapsed from since to now, never negative.
func DaysBetween(since, now time.Time) int {
	d := now.Sub(since).Hours() / 24
	if d < 0 {
		return 0
	}
	return int(math.Floor(d))
}
