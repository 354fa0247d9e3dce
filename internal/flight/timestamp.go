package flight

import "time"

const (
	rawTimestampLayout = "2006-01-02T15:04:05"

	// CanonicalTimeLayout is the storage form of every timestamp field:
	// second precision, no fractional component, no zone suffix.
	CanonicalTimeLayout = "2006-01-02 15:04:05"
)

// CleanTimestamp parses a raw API timestamp into the canonical layout.
// The upstream emits ISO-like local times with or without fractional
// seconds; time.Parse accepts the optional fraction with a single layout.
// Any malformed or empty input yields ("", false) — absence is an expected
// outcome here, never an error.
func CleanTimestamp(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	t, err := time.Parse(rawTimestampLayout, raw)
	if err != nil {
		return "", false
	}
	return t.Format(CanonicalTimeLayout), true
}
