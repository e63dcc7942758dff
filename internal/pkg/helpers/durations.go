package helpers

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a config duration, falling back to def when the value is malformed.
func ParseDuration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Err(err).Str("value", value).Dur("default", def).Msg("Invalid duration in configuration, using default")
		return def
	}
	return d
}

// HoursBetween returns the hours elapsed from start to end rounded to one decimal.
func HoursBetween(start, end time.Time) float64 {
	return math.Round(end.Sub(start).Hours()*10) / 10
}
