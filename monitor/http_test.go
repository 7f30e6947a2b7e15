package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, m *Monitor) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	RegisterHandlers(mux, m)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()

	defer resp.Body.Close()
	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Timestamp == "" {
		t.Error("envelope should carry a timestamp")
	}
	return env
}

func TestHTTP_Status(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("redis", Critical, failProbe("down"))
	m.PerformHealthCheck(context.Background())

	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Error("envelope Success should be true")
	}

	data := env.Data.(map[string]any)
	overall := data["overall"].(map[string]any)
	if overall["status"] != "critical" {
		t.Errorf("overall.status = %v, want critical", overall["status"])
	}
	if _, ok := data["components"]; !ok {
		t.Error("data should carry components")
	}
	if _, ok := data["metrics"]; !ok {
		t.Error("data should carry metrics")
	}
}

func TestHTTP_Realtime(t *testing.T) {
	m := newTestMonitor(t, Config{})
	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/realtime")
	if err != nil {
		t.Fatalf("GET /realtime: %v", err)
	}

	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	for _, key := range []string{"memoryUsage", "cpuUsage", "requests", "errors", "responseTime"} {
		if _, ok := data[key]; !ok {
			t.Errorf("realtime data missing %q", key)
		}
	}
}

func TestHTTP_Components(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("redis", Critical, okProbe())
	m.RegisterComponent("figmaApi", Critical, okProbe())

	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/components")
	if err != nil {
		t.Fatalf("GET /components: %v", err)
	}

	env := decodeEnvelope(t, resp)
	list := env.Data.([]any)
	if len(list) != 2 {
		t.Errorf("components = %d, want 2", len(list))
	}
}

func TestHTTP_Alerts(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("redis", Critical, failProbe("down"))
	m.PerformHealthCheck(context.Background())
	m.CheckAlertConditions(context.Background())

	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/alerts")
	if err != nil {
		t.Fatalf("GET /alerts: %v", err)
	}

	env := decodeEnvelope(t, resp)
	list := env.Data.([]any)
	if len(list) != 1 {
		t.Fatalf("alerts = %d, want 1", len(list))
	}
	alert := list[0].(map[string]any)
	if alert["type"] != "component_error" {
		t.Errorf("alert type = %v, want component_error", alert["type"])
	}
}

func TestHTTP_MetricsHistory(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("api", NonCritical, okProbe())
	m.PerformHealthCheck(context.Background())

	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/metrics/history")
	if err != nil {
		t.Fatalf("GET /metrics/history: %v", err)
	}

	env := decodeEnvelope(t, resp)
	list := env.Data.([]any)
	if len(list) != 1 {
		t.Errorf("history buckets = %d, want 1", len(list))
	}
}

func TestHTTP_ManualCheck(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("redis", Critical, okProbe())

	srv := newTestServer(t, m)

	resp, err := http.Post(srv.URL+"/check/redis", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /check/redis: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("component status = %v, want healthy", data["status"])
	}
}

func TestHTTP_ManualCheckUnknownComponent(t *testing.T) {
	m := newTestMonitor(t, Config{})
	srv := newTestServer(t, m)

	resp, err := http.Post(srv.URL+"/check/ghost", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /check/ghost: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Error("envelope Success should be false")
	}
	if env.Error == "" {
		t.Error("envelope should carry an error message")
	}
}

func TestHTTP_Summary(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("redis", Critical, okProbe())
	m.PerformHealthCheck(context.Background())

	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/summary")
	if err != nil {
		t.Fatalf("GET /summary: %v", err)
	}

	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	for _, key := range []string{"overallScore", "componentsHealthy", "componentsTotal", "criticalIssues", "warnings", "uptime"} {
		if _, ok := data[key]; !ok {
			t.Errorf("summary missing %q", key)
		}
	}
}

func TestHTTP_Dashboard(t *testing.T) {
	m := newTestMonitor(t, Config{})
	m.RegisterComponent("redis", Critical, okProbe())
	m.PerformHealthCheck(context.Background())

	srv := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/dashboard")
	if err != nil {
		t.Fatalf("GET /dashboard: %v", err)
	}

	env := decodeEnvelope(t, resp)
	data := env.Data.(map[string]any)
	for _, key := range []string{"overall", "components", "metrics", "alerts"} {
		if _, ok := data[key]; !ok {
			t.Errorf("dashboard missing %q", key)
		}
	}
}
