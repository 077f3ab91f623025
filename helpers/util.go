package helpers

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

// LastPathSegment returns the last non-empty path segment of a link with
// any query string or fragment stripped.
func LastPathSegment(link string) (string, error) {
	trimmed := link
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}

	parts := strings.Split(trimmed, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i], nil
		}
	}
	return "", errors.New("no path segment found")
}

// SleepRandom pauses for a random duration in [min, max]. Returns false
// when the context was cancelled during the pause.
func SleepRandom(ctx context.Context, min, max time.Duration) bool {
	d := min
	if max > min {
		d += rand.N(max - min)
	}
	if d <= 0 {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
