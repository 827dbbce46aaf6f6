// Package timing holds the pure clock arithmetic for timed quizzes. Every
// function takes the current time as an argument so callers stay
// deterministic; services inject a now func the same way the rest of the
// codebase does.
package timing

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeLimit is returned when a time limit is zero or negative.
var ErrInvalidTimeLimit = errors.New("time limit must be a positive integer (in minutes)")

// RemainingSeconds returns the whole seconds left on a quiz clock, clamped at
// zero. A nil startedAt means the attempt has not begun, so the full
// allowance is still available.
func RemainingSeconds(startedAt *time.Time, timeLimitMinutes int, now time.Time) (int, error) {
	if timeLimitMinutes <= 0 {
		return 0, ErrInvalidTimeLimit
	}

	total := timeLimitMinutes * 60
	if startedAt == nil {
		return total, nil
	}

	elapsed := int(now.Sub(*startedAt) / time.Second)
	remaining := total - elapsed
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}

// Expired reports whether the allowance has been used up. Elapsed time
// exactly equal to the limit counts as expired. A not-yet-started attempt is
// never expired.
func Expired(startedAt *time.Time, timeLimitMinutes int, now time.Time) (bool, error) {
	if timeLimitMinutes <= 0 {
		return false, ErrInvalidTimeLimit
	}
	if startedAt == nil {
		return false, nil
	}

	return now.Sub(*startedAt) >= time.Duration(timeLimitMinutes)*time.Minute, nil
}

// ExpiresAt returns the wall-clock instant the attempt runs out, or nil when
// it has not been started.
func ExpiresAt(startedAt *time.Time, timeLimitMinutes int) (*time.Time, error) {
	if timeLimitMinutes <= 0 {
		return nil, ErrInvalidTimeLimit
	}
	if startedAt == nil {
		return nil, nil
	}

	expiry := startedAt.Add(time.Duration(timeLimitMinutes) * time.Minute)
	return &expiry, nil
}

// FormatSeconds renders a second count as a zero-padded "MM:SS" countdown
// string. Minutes grow past two digits as needed, e.g. 7200 -> "120:00".
func FormatSeconds(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}

	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
