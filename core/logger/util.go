package logger

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status maps an error to the status enumeration used in logs.
// Cancellation during shutdown is reported as "skip".
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "skip"
	default:
		return "fail"
	}
}

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to whole milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values with ", " and reports whether
// some were left out.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 || len(values) == 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
