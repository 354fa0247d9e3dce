package timetable_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightops/arrivals/internal/timetable"
)

func arrivalsHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FRA", r.URL.Query().Get("iataCode"))
		assert.Equal(t, "arrival", r.URL.Query().Get("type"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"type":   "arrival",
				"status": "landed",
				"departure": map[string]any{
					"iataCode":      "jfk",
					"scheduledTime": "2024-03-01T10:00:00.000",
					"delay":         15,
					"terminal":      1,
				},
				"arrival": map[string]any{
					"iataCode":      "fra",
					"scheduledTime": "2024-03-01T17:30:00.000",
					"baggage":       nil,
				},
				"airline":    map[string]any{"name": "Lufthansa", "iataCode": "LH"},
				"flight":     map[string]any{"iataNumber": "LH400"},
				"codeshared": nil,
			},
			{
				"type":       "arrival",
				"status":     "scheduled",
				"codeshared": map[string]any{"flight": map[string]any{"iataNumber": "UA9001"}},
			},
		})
	}
}

func TestArrivals_Success(t *testing.T) {
	srv := httptest.NewServer(arrivalsHandler(t))
	defer srv.Close()

	c := timetable.NewClientWithURL(srv.URL, "test-key")
	entries, err := c.Arrivals(context.Background(), "FRA")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "landed", first.Status)
	assert.Equal(t, "jfk", first.Departure.IATACode.String())
	assert.Equal(t, "15", first.Departure.Delay.String(), "numeric delay decodes as text")
	assert.Equal(t, "1", first.Departure.Terminal.String())
	assert.False(t, first.Arrival.Baggage.Set, "null decodes as unset")
	assert.Nil(t, first.Codeshared)

	assert.NotNil(t, entries[1].Codeshared)
}

func TestArrivals_ExplicitRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "No Record Found",
		})
	}))
	defer srv.Close()

	c := timetable.NewClientWithURL(srv.URL, "test-key")
	_, err := c.Arrivals(context.Background(), "XYZ")
	require.ErrorIs(t, err, timetable.ErrRejected)
}

func TestArrivals_ErrorKeyOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "No Record Found"})
	}))
	defer srv.Close()

	c := timetable.NewClientWithURL(srv.URL, "test-key")
	_, err := c.Arrivals(context.Background(), "XYZ")
	require.ErrorIs(t, err, timetable.ErrRejected)
}

func TestArrivals_NonListPayload(t *testing.T) {
	cases := map[string]string{
		"object without failure markers": `{"unexpected": "shape"}`,
		"bare string":                    `"hello"`,
		"number":                         `42`,
		"empty body":                     ``,
		"broken list":                    `[{"type": "arrival"`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c := timetable.NewClientWithURL(srv.URL, "test-key")
			_, err := c.Arrivals(context.Background(), "FRA")
			require.ErrorIs(t, err, timetable.ErrMalformedPayload)
		})
	}
}

func TestArrivals_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := timetable.NewClientWithURL(srv.URL, "test-key")
	_, err := c.Arrivals(context.Background(), "FRA")
	require.Error(t, err)
	assert.NotErrorIs(t, err, timetable.ErrRejected)
	assert.NotErrorIs(t, err, timetable.ErrMalformedPayload)
}

func TestArrivals_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := timetable.NewClientWithURL(srv.URL, "test-key")
	_, err := c.Arrivals(ctx, "FRA")
	require.Error(t, err)
}

func TestText_DecodeShapes(t *testing.T) {
	var leg timetable.Leg
	require.NoError(t, json.Unmarshal([]byte(`{
		"iataCode": "FRA",
		"delay": 30,
		"gate": null,
		"terminal": "2"
	}`), &leg))

	assert.Equal(t, "FRA", leg.IATACode.String())
	assert.Equal(t, "30", leg.Delay.String())
	assert.False(t, leg.Gate.Set)
	assert.Nil(t, leg.Gate.Ptr())
	require.NotNil(t, leg.Terminal.Ptr())
	assert.Equal(t, "2", *leg.Terminal.Ptr())
}
