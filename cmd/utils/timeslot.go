package utils

import (
	"fmt"
	"time"
)

// CancellationCutoff is how close to the appointment a client may still
// cancel it.
const CancellationCutoff = 3 * time.Hour

// CanonicalSlot parses an RFC 3339 timestamp and truncates it to the start
// of its hour in UTC. All slot comparisons in the system happen on these
// canonical values.
func CanonicalSlot(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t.UTC().Truncate(time.Hour), nil
}

// IsPast reports whether the slot starts strictly before now.
func IsPast(slot, now time.Time) bool {
	return slot.Before(now)
}

// WithinCancellationCutoff reports whether it is too late to cancel an
// appointment scheduled at date: true once date - cutoff <= now.
func WithinCancellationCutoff(date, now time.Time, cutoff time.Duration) bool {
	return !date.Add(-cutoff).After(now)
}

// FormatSlot renders a slot the way it appears in notifications and mail,
// e.g. "September 01, at 15:00".
func FormatSlot(t time.Time) string {
	return t.Format("January 02, at 15:04")
}
