package monitor

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/jonwraymond/svcops/container"
)

// Prober performs one health-check operation against a component.
//
// Contract:
// - Context: implementations must honor cancellation/deadlines; the monitor
//   bounds every probe with a timeout.
// - Errors: a returned error marks the component as StatusError. Returned
//   details are attached to the component record either way.
type Prober interface {
	Probe(ctx context.Context) (map[string]any, error)
}

// ProberFunc adapts an ordinary function to the Prober interface.
type ProberFunc func(ctx context.Context) (map[string]any, error)

// Probe performs the health check.
func (f ProberFunc) Probe(ctx context.Context) (map[string]any, error) {
	return f(ctx)
}

// ServiceProbe checks a container-registered service. The probe fails when
// the service is unregistered or its factory fails; when the instance
// exposes a health-check hook, its verdict is consulted too.
type ServiceProbe struct {
	Container *container.Container
	Service   string
}

// Probe resolves the service and consults its optional health-check hook.
func (p *ServiceProbe) Probe(ctx context.Context) (map[string]any, error) {
	if p.Container == nil {
		return nil, ErrNilContainer
	}
	if !p.Container.Has(p.Service) {
		return nil, &container.NotRegisteredError{Service: p.Service}
	}

	inst, err := p.Container.Get(p.Service)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"instantiated": true}

	reporter, ok := inst.(container.HealthReporter)
	if !ok {
		return details, nil // no hook: always-ready
	}

	health, err := reporter.HealthCheck(ctx)
	if err != nil {
		return details, err
	}
	for k, v := range health.Details {
		details[k] = v
	}
	details["serviceStatus"] = health.Status
	if health.Status == "error" || health.Status == "unhealthy" {
		return details, fmt.Errorf("service %q reports status %q", p.Service, health.Status)
	}
	return details, nil
}

// HTTPProbe checks an external dependency with a GET request. Transport
// errors and non-2xx responses are failures. The monitor's probe timeout
// bounds the request through the context.
type HTTPProbe struct {
	URL string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	// Headers are added to every request, e.g. an API token header.
	Headers map[string]string
}

// Probe issues the request and validates the status code.
func (p *HTTPProbe) Probe(ctx context.Context) (map[string]any, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	details := map[string]any{"statusCode": resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return details, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, p.URL)
	}
	return details, nil
}

// MemoryProbe checks process heap usage against a critical threshold.
type MemoryProbe struct {
	// CriticalPct is the heap usage percentage (of runtime-obtained
	// system memory) that fails the probe. Default: 95.
	CriticalPct float64
}

// Probe samples runtime memory statistics.
func (p *MemoryProbe) Probe(_ context.Context) (map[string]any, error) {
	criticalPct := p.CriticalPct
	if criticalPct <= 0 {
		criticalPct = 95
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usedPct := 0.0
	if stats.Sys > 0 {
		usedPct = float64(stats.HeapAlloc) / float64(stats.Sys) * 100
	}

	details := map[string]any{
		"heapAllocBytes": stats.HeapAlloc,
		"sysBytes":       stats.Sys,
		"usedPct":        usedPct,
		"numGC":          stats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	if usedPct >= criticalPct {
		return details, fmt.Errorf("memory usage critical: %.1f%%", usedPct)
	}
	return details, nil
}

// runProbe executes a component's probe bounded by the configured timeout,
// converting a panic into an error. The probe goroutine is left to finish
// in the background on timeout; its result is discarded.
func (m *Monitor) runProbe(ctx context.Context, p Prober) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	type outcome struct {
		details map[string]any
		err     error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("probe panicked: %v", r)}
			}
		}()
		details, err := p.Probe(ctx)
		ch <- outcome{details: details, err: err}
	}()

	select {
	case o := <-ch:
		return o.details, o.err
	case <-ctx.Done():
		return nil, ErrProbeTimeout
	}
}

var (
	_ Prober = ProberFunc(nil)
	_ Prober = (*ServiceProbe)(nil)
	_ Prober = (*HTTPProbe)(nil)
	_ Prober = (*MemoryProbe)(nil)
)
