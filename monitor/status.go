package monitor

import (
	"time"
)

// Status is the health state of a single component.
type Status string

const (
	// StatusUnknown means the component has not been probed yet.
	StatusUnknown Status = "unknown"
	// StatusHealthy means the last probe succeeded within the warning threshold.
	StatusHealthy Status = "healthy"
	// StatusDegraded means the last probe succeeded but was slow.
	StatusDegraded Status = "degraded"
	// StatusError means the last probe failed, timed out, or panicked.
	StatusError Status = "error"
)

func (s Status) String() string {
	return string(s)
}

// Criticality classifies how a component's failure weighs on the system.
type Criticality string

const (
	// Critical components put the whole system into critical state when erroring.
	Critical Criticality = "critical"
	// NonCritical components only degrade the system when erroring.
	NonCritical Criticality = "non-critical"
)

// ComponentStatus is the per-component status record. The monitor replaces
// the whole record on every probe, so a concurrent reader never observes a
// half-updated one.
type ComponentStatus struct {
	Name                 string         `json:"name"`
	Criticality          Criticality    `json:"criticality"`
	Status               Status         `json:"status"`
	LastCheck            time.Time      `json:"lastCheck"`
	LastSuccess          *time.Time     `json:"lastSuccess,omitempty"`
	ResponseTimeMs       float64        `json:"responseTimeMs"`
	ConsecutiveErrors    int            `json:"consecutiveErrors"`
	ConsecutiveSuccesses int            `json:"consecutiveSuccesses"`
	Details              map[string]any `json:"details,omitempty"`
}

// transition applies the component state machine to a finished probe and
// returns the replacement record.
//
//	unknown  -> healthy   first success under the warning threshold
//	healthy  -> degraded  success at/over the warning threshold
//	degraded -> healthy   success under the warning threshold
//	any      -> error     probe failure, timeout, or panic
//	error    -> healthy   single success recovers, no debounce
func transition(prev ComponentStatus, elapsed time.Duration, details map[string]any, probeErr error, warnAt time.Duration) ComponentStatus {
	now := time.Now()

	next := prev
	next.LastCheck = now
	next.ResponseTimeMs = float64(elapsed.Nanoseconds()) / 1e6
	next.Details = details

	if probeErr != nil {
		next.Status = StatusError
		next.ConsecutiveErrors = prev.ConsecutiveErrors + 1
		next.ConsecutiveSuccesses = 0
		if next.Details == nil {
			next.Details = map[string]any{}
		}
		next.Details["error"] = probeErr.Error()
		return next
	}

	next.ConsecutiveSuccesses = prev.ConsecutiveSuccesses + 1
	next.ConsecutiveErrors = 0
	next.LastSuccess = &now

	if elapsed >= warnAt {
		next.Status = StatusDegraded
	} else {
		next.Status = StatusHealthy
	}
	return next
}
