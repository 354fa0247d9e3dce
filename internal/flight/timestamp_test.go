package flight_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightops/arrivals/internal/flight"
)

func TestCleanTimestamp_WithoutFraction(t *testing.T) {
	got, ok := flight.CleanTimestamp("2024-03-01T10:15:30")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01 10:15:30", got)
}

func TestCleanTimestamp_WithFraction(t *testing.T) {
	got, ok := flight.CleanTimestamp("2024-03-01T10:15:30.123456")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01 10:15:30", got, "fractional seconds must be dropped")
}

func TestCleanTimestamp_Malformed(t *testing.T) {
	cases := []string{
		"",
		"not a timestamp",
		"2024-03-01 10:15:30", // canonical form is not an accepted input
		"2024-03-01",
		"2024-13-45T99:99:99",
		"2024-03-01T10:15:30Z", // zone suffixes are not emitted by the API
	}
	for _, raw := range cases {
		got, ok := flight.CleanTimestamp(raw)
		assert.False(t, ok, "input %q should be absent", raw)
		assert.Empty(t, got)
	}
}

func TestCleanTimestamp_RoundTrip(t *testing.T) {
	// Reparsing the canonical output yields the same instant to the second.
	raw := "2024-07-15T23:59:59.900001"
	got, ok := flight.CleanTimestamp(raw)
	require.True(t, ok)

	reparsed, err := time.Parse(flight.CanonicalTimeLayout, got)
	require.NoError(t, err)

	orig, err := time.Parse("2006-01-02T15:04:05", raw)
	require.NoError(t, err)
	assert.True(t, reparsed.Equal(orig.Truncate(time.Second)))
}
