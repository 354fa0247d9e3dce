package status_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightops/arrivals/internal/pipeline"
	"github.com/flightops/arrivals/internal/status"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz_OK(t *testing.T) {
	router := status.NewRouter(status.NewReporter(), &fakePinger{}, &fakePinger{}, testLogger())

	rec := doRequest(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "ok", body["redis"])
}

func TestHealthz_DBDown(t *testing.T) {
	router := status.NewRouter(status.NewReporter(), &fakePinger{err: fmt.Errorf("down")}, nil, testLogger())

	rec := doRequest(t, router, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error", body["db"])
	_, hasRedis := body["redis"]
	assert.False(t, hasRedis, "redis omitted when no cache is configured")
}

func TestHealthz_RedisDown(t *testing.T) {
	router := status.NewRouter(status.NewReporter(), &fakePinger{}, &fakePinger{err: fmt.Errorf("down")}, testLogger())

	rec := doRequest(t, router, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus_NoRunYet(t *testing.T) {
	router := status.NewRouter(status.NewReporter(), &fakePinger{}, nil, testLogger())

	rec := doRequest(t, router, "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus_LastRun(t *testing.T) {
	reporter := status.NewReporter()
	reporter.Record(status.RunReport{
		Summary: pipeline.Summary{
			StartedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
			Rounds:    2,
			Kept:      41,
			Skipped:   []string{"XYZ"},
		},
		Saved: 41,
	})

	router := status.NewRouter(reporter, &fakePinger{}, nil, testLogger())
	rec := doRequest(t, router, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var report status.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Rounds)
	assert.Equal(t, 41, report.Saved)
	assert.Equal(t, []string{"XYZ"}, report.Skipped)
}

func TestReporter_LatestWins(t *testing.T) {
	reporter := status.NewReporter()
	assert.Nil(t, reporter.Last())

	reporter.Record(status.RunReport{Saved: 1})
	reporter.Record(status.RunReport{Saved: 2})

	last := reporter.Last()
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Saved)
}
