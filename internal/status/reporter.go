package status

import (
	"sync"

	"github.com/flightops/arrivals/internal/pipeline"
)

// RunReport is what /status exposes for the most recent pipeline run.
type RunReport struct {
	pipeline.Summary
	Saved int    `json:"saved"`
	Error string `json:"error,omitempty"`
}

// Reporter holds the latest run report. The pipeline writes it after each
// run; handlers read it. Orchestration never reads it back.
type Reporter struct {
	mu   sync.Mutex
	last *RunReport
}

// NewReporter constructs an empty Reporter.
func NewReporter() *Reporter { return &Reporter{} }

// Record stores the report of a finished run.
func (r *Reporter) Record(report RunReport) {
	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()
}

// Last returns the most recent report, or nil if no run has finished yet.
func (r *Reporter) Last() *RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	report := *r.last
	return &report
}
