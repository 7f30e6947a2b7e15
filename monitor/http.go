package monitor

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Envelope is the JSON wrapper every monitoring endpoint returns.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, code int, env Envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, Envelope{Success: false, Error: err.Error()})
}

// StatusHandler returns `{overall, components, metrics}`.
func StatusHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.HealthStatus())
	}
}

// RealTimeHandler returns the freshly sampled metrics snapshot.
func RealTimeHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.RealTimeMetrics())
	}
}

// ComponentsHandler returns every component's status record.
func ComponentsHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.ComponentStatuses())
	}
}

// AlertsHandler returns the open alerts.
func AlertsHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.Alerts())
	}
}

// MetricsHistoryHandler returns the time-bucketed metrics series.
func MetricsHistoryHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.MetricsHistory())
	}
}

// CheckHandler forces an immediate check of the named component and
// returns the resulting status record. Responds 404 for an unrecognized
// component name.
func CheckHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("component")

		status, err := m.RunManualCheck(r.Context(), name)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, ErrUnknownComponent) {
				code = http.StatusNotFound
			}
			writeError(w, code, err)
			return
		}
		writeData(w, status)
	}
}

// SummaryHandler returns the condensed health view.
func SummaryHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.Summary())
	}
}

// DashboardHandler returns the consolidated status, metrics, and alert
// counts.
func DashboardHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, m.Dashboard())
	}
}

// RegisterHandlers registers the monitoring read surface on the given mux.
func RegisterHandlers(mux *http.ServeMux, m *Monitor) {
	mux.HandleFunc("GET /status", StatusHandler(m))
	mux.HandleFunc("GET /realtime", RealTimeHandler(m))
	mux.HandleFunc("GET /components", ComponentsHandler(m))
	mux.HandleFunc("GET /alerts", AlertsHandler(m))
	mux.HandleFunc("GET /metrics/history", MetricsHistoryHandler(m))
	mux.HandleFunc("POST /check/{component}", CheckHandler(m))
	mux.HandleFunc("GET /summary", SummaryHandler(m))
	mux.HandleFunc("GET /dashboard", DashboardHandler(m))
}
