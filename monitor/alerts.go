package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/svcops/telemetry"
)

// AlertType identifies the condition that raised an alert.
type AlertType string

const (
	// AlertComponentError is raised while a component is in error.
	AlertComponentError AlertType = "component_error"
	// AlertComponentDegraded is raised while a component is degraded.
	AlertComponentDegraded AlertType = "component_degraded"
	// AlertSlowResponse is raised on elevated average response time.
	AlertSlowResponse AlertType = "slow_response"
	// AlertHighMemory is raised on elevated heap usage.
	AlertHighMemory AlertType = "high_memory"
	// AlertHighErrorRate is raised on an elevated request error rate.
	AlertHighErrorRate AlertType = "high_error_rate"
)

// AlertSeverity ranks an alert.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// SystemComponent names the pseudo-component that carries system-wide
// alerts (memory, error rate, overall response time).
const SystemComponent = "system"

// Alert records a detected anomaly. At most one open alert per
// (component, type) pair exists at any time.
type Alert struct {
	ID        string        `json:"id"`
	Type      AlertType     `json:"type"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	Component string        `json:"component"`
	Timestamp time.Time     `json:"timestamp"`
	Open      bool          `json:"open"`
}

// CheckAlertConditions evaluates component statuses and the metrics
// snapshot against the configured thresholds, opening new alerts where a
// condition holds and no open alert of the same (component, type) exists,
// and closing system alerts whose condition has resolved. It never
// propagates a failure: alerting must not destabilize monitoring.
func (m *Monitor) CheckAlertConditions(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(ctx, "alert evaluation panicked", telemetry.F("panic", r))
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.order {
		status := m.statuses[name]
		if status == nil {
			continue
		}

		switch status.Status {
		case StatusError:
			severity := SeverityWarning
			if status.Criticality == Critical {
				severity = SeverityCritical
			}
			m.openAlertLocked(ctx, name, AlertComponentError, severity,
				fmt.Sprintf("component %q is in error (%d consecutive failures)", name, status.ConsecutiveErrors))
		case StatusDegraded:
			m.openAlertLocked(ctx, name, AlertComponentDegraded, SeverityWarning,
				fmt.Sprintf("component %q is degraded (%.0fms response)", name, status.ResponseTimeMs))
		case StatusHealthy:
			m.closeAlertLocked(name, AlertComponentDegraded)
		}
	}

	snap := m.snapshot
	warnMs := float64(m.cfg.ResponseTimeWarn.Nanoseconds()) / 1e6

	if snap.ResponseTime.Average >= warnMs && snap.Requests > 0 {
		m.openAlertLocked(ctx, SystemComponent, AlertSlowResponse, SeverityWarning,
			fmt.Sprintf("average response time %.0fms exceeds %.0fms", snap.ResponseTime.Average, warnMs))
	} else {
		m.closeAlertLocked(SystemComponent, AlertSlowResponse)
	}

	if snap.MemoryUsage.UsedPct >= m.cfg.MemoryWarnPct {
		m.openAlertLocked(ctx, SystemComponent, AlertHighMemory, SeverityWarning,
			fmt.Sprintf("memory usage %.1f%% exceeds %.1f%%", snap.MemoryUsage.UsedPct, m.cfg.MemoryWarnPct))
	} else {
		m.closeAlertLocked(SystemComponent, AlertHighMemory)
	}

	errorRate := 0.0
	if snap.Requests > 0 {
		errorRate = float64(snap.Errors) / float64(snap.Requests) * 100
	}
	if errorRate >= m.cfg.ErrorRateWarnPct {
		m.openAlertLocked(ctx, SystemComponent, AlertHighErrorRate, SeverityWarning,
			fmt.Sprintf("error rate %.1f%% exceeds %.1f%%", errorRate, m.cfg.ErrorRateWarnPct))
	} else {
		m.closeAlertLocked(SystemComponent, AlertHighErrorRate)
	}

	m.inst.recordOpenAlerts(ctx, m.alertCountsLocked().Open)
}

// openAlertLocked appends a new open alert unless one of the same
// (component, type) is already open. Callers hold m.mu.
func (m *Monitor) openAlertLocked(ctx context.Context, comp string, typ AlertType, severity AlertSeverity, msg string) {
	for _, a := range m.alerts {
		if a.Open && a.Component == comp && a.Type == typ {
			return
		}
	}

	alert := &Alert{
		ID:        uuid.NewString(),
		Type:      typ,
		Severity:  severity,
		Message:   msg,
		Component: comp,
		Timestamp: time.Now(),
		Open:      true,
	}
	m.alerts = append(m.alerts, alert)

	m.logger.Warn(ctx, "alert raised",
		telemetry.F("alert", string(typ)),
		telemetry.F("severity", string(severity)),
		telemetry.F("component", comp),
		telemetry.F("message", msg),
	)
}

// closeAlertLocked closes the open alert of the given (component, type)
// pair, if any. Callers hold m.mu.
func (m *Monitor) closeAlertLocked(comp string, typ AlertType) {
	for _, a := range m.alerts {
		if a.Open && a.Component == comp && a.Type == typ {
			a.Open = false
		}
	}
}

// resolveComponentAlertsLocked closes every open alert for a component.
// Callers hold m.mu.
func (m *Monitor) resolveComponentAlertsLocked(comp string) {
	for _, a := range m.alerts {
		if a.Open && a.Component == comp {
			a.Open = false
		}
	}
}

// Alerts returns the open alerts, oldest first.
func (m *Monitor) Alerts() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := make([]Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if a.Open {
			open = append(open, *a)
		}
	}
	return open
}

// ClearOldAlerts removes alerts at least maxAge old, open or not.
// ClearOldAlerts(0) empties the alert list regardless of age.
func (m *Monitor) ClearOldAlerts(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if a.Timestamp.After(cutoff) {
			kept = append(kept, a)
		}
	}
	m.alerts = kept
}
