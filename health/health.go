// Package health aggregates component checks into one report.
package health

import (
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/component"
)

// Status overall or per-check status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded" // working, but close to a limit
	StatusUnhealthy Status = "unhealthy"
)

// Checker alias of component.HealthChecker
type Checker = component.HealthChecker

// CheckResult outcome of one checker
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Response aggregated report
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// IsHealthy whether every check passed
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// IsDegraded whether some check is degraded and none is unhealthy
func (r *Response) IsDegraded() bool {
	return r.Status == StatusDegraded
}

// DegradedError marks a check failure as degraded rather than unhealthy
type DegradedError struct {
	Err error
}

func (e *DegradedError) Error() string {
	return "degraded: " + e.Err.Error()
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// Degraded wraps err so the aggregator reports StatusDegraded
func Degraded(err error) error {
	if err == nil {
		return nil
	}
	return &DegradedError{Err: err}
}

// statusOf classifies a checker error
func statusOf(err error) Status {
	if err == nil {
		return StatusHealthy
	}
	var degraded *DegradedError
	if errors.As(err, &degraded) {
		return StatusDegraded
	}
	return StatusUnhealthy
}
