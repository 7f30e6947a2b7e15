package monitor

import "time"

// Overall summarizes the whole system: critical when at least one
// critical component is in error; degraded when any component is degraded
// or a non-critical component is in error; healthy otherwise.
type Overall struct {
	Status string `json:"status"` // critical|degraded|healthy
	Score  int    `json:"score"`  // 0-100
}

// StatusReport is the full health view returned by HealthStatus.
type StatusReport struct {
	Overall    Overall                    `json:"overall"`
	Components map[string]ComponentStatus `json:"components"`
	Metrics    MetricsSnapshot            `json:"metrics"`
}

// HealthSummary is the condensed view for status lines and CLIs.
type HealthSummary struct {
	OverallScore      int   `json:"overallScore"`
	ComponentsHealthy int   `json:"componentsHealthy"`
	ComponentsTotal   int   `json:"componentsTotal"`
	CriticalIssues    int   `json:"criticalIssues"`
	Warnings          int   `json:"warnings"`
	UptimeMs          int64 `json:"uptime"`
}

// AlertCounts tallies the open alerts by severity.
type AlertCounts struct {
	Open     int `json:"open"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
}

// DashboardData is the consolidated view for a monitoring dashboard.
type DashboardData struct {
	Overall    Overall           `json:"overall"`
	Components []ComponentStatus `json:"components"`
	Metrics    MetricsSnapshot   `json:"metrics"`
	Alerts     AlertCounts       `json:"alerts"`
}

// overallLocked computes the overall status/score. Callers hold m.mu.
func (m *Monitor) overallLocked() Overall {
	criticalErrors := 0
	nonCriticalErrors := 0
	degraded := 0

	for _, status := range m.statuses {
		switch status.Status {
		case StatusError:
			if status.Criticality == Critical {
				criticalErrors++
			} else {
				nonCriticalErrors++
			}
		case StatusDegraded:
			degraded++
		}
	}

	score := 100 - 40*criticalErrors - 10*nonCriticalErrors - 5*degraded
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := "healthy"
	switch {
	case criticalErrors > 0:
		status = "critical"
	case nonCriticalErrors > 0 || degraded > 0:
		status = "degraded"
	}

	return Overall{Status: status, Score: score}
}

func (m *Monitor) overall() Overall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overallLocked()
}

// HealthStatus returns the overall verdict, the component status table,
// and the last metrics snapshot.
func (m *Monitor) HealthStatus() StatusReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	components := make(map[string]ComponentStatus, len(m.order))
	for _, name := range m.order {
		if status := m.statuses[name]; status != nil {
			components[name] = *status
		} else {
			components[name] = ComponentStatus{
				Name:        name,
				Criticality: m.components[name].criticality,
				Status:      StatusUnknown,
			}
		}
	}

	return StatusReport{
		Overall:    m.overallLocked(),
		Components: components,
		Metrics:    m.snapshot,
	}
}

// RealTimeMetrics recomputes and returns a fresh metrics snapshot rather
// than the one cached by the last cycle.
func (m *Monitor) RealTimeMetrics() MetricsSnapshot {
	return m.sampleMetrics()
}

// ComponentStatuses returns every component's status record in
// registration order. Unprobed components appear as StatusUnknown.
func (m *Monitor) ComponentStatuses() []ComponentStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]ComponentStatus, 0, len(m.order))
	for _, name := range m.order {
		if status := m.statuses[name]; status != nil {
			statuses = append(statuses, *status)
		} else {
			statuses = append(statuses, ComponentStatus{
				Name:        name,
				Criticality: m.components[name].criticality,
				Status:      StatusUnknown,
			})
		}
	}
	return statuses
}

// MetricsHistory returns the time-bucketed memory/cpu/response-time series.
func (m *Monitor) MetricsHistory() []MetricsBucket {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]MetricsBucket, len(m.history))
	copy(history, m.history)
	return history
}

// Summary returns the condensed health view.
func (m *Monitor) Summary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	healthy := 0
	for _, status := range m.statuses {
		if status.Status == StatusHealthy {
			healthy++
		}
	}

	counts := m.alertCountsLocked()

	return HealthSummary{
		OverallScore:      m.overallLocked().Score,
		ComponentsHealthy: healthy,
		ComponentsTotal:   len(m.order),
		CriticalIssues:    counts.Critical,
		Warnings:          counts.Warning,
		UptimeMs:          time.Since(m.startTime).Milliseconds(),
	}
}

// Dashboard returns the consolidated status, metrics, and alert counts.
func (m *Monitor) Dashboard() DashboardData {
	components := m.ComponentStatuses()

	m.mu.RLock()
	defer m.mu.RUnlock()

	return DashboardData{
		Overall:    m.overallLocked(),
		Components: components,
		Metrics:    m.snapshot,
		Alerts:     m.alertCountsLocked(),
	}
}

// alertCountsLocked tallies open alerts. Callers hold m.mu.
func (m *Monitor) alertCountsLocked() AlertCounts {
	counts := AlertCounts{}
	for _, a := range m.alerts {
		if !a.Open {
			continue
		}
		counts.Open++
		switch a.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityWarning:
			counts.Warning++
		}
	}
	return counts
}
