package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EndpointSpec describes one faucet endpoint to health-check.
type EndpointSpec struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Timeout time.Duration     `json:"-"`
}

// ProbeStatusTransportError is the status recorded when no HTTP response was received.
const ProbeStatusTransportError = -1

// ProbeResult is the outcome of a single probe.
type ProbeResult struct {
	URL     string        `json:"url"`
	Method  string        `json:"method"`
	Status  int           `json:"status"`
	OK      bool          `json:"ok"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Error   string        `json:"error,omitempty"`
}

// ProbeReport groups the results of one probe cycle.
type ProbeReport struct {
	ID         uuid.UUID     `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []ProbeResult `json:"results"`
}

// Succeeded counts the results with a 2xx status.
func (r ProbeReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK {
			n++
		}
	}
	return n
}

// StatusOK reports whether an HTTP status counts as a successful probe.
func StatusOK(status int) bool {
	return status >= 200 && status < 300
}
