// Package monitor provides continuous health monitoring over a set of
// named components: container-backed services, external HTTP dependencies,
// and process-level resources.
//
// Each component is probed on a repeating schedule with a bounded timeout.
// The monitor maintains a per-component status record following a small
// state machine (unknown, healthy, degraded, error), aggregates a 0-100
// system health score, and raises deduplicated alerts when thresholds are
// crossed. A single successful probe recovers a component from error and
// closes its open alerts.
//
// # Basic Usage
//
//	m, err := monitor.New(c, monitor.Config{})
//	if err != nil {
//	    return err
//	}
//
//	m.RegisterComponent("redis", monitor.Critical, &monitor.ServiceProbe{
//	    Container: c,
//	    Service:   "redis",
//	})
//	m.RegisterComponent("figmaApi", monitor.Critical, &monitor.HTTPProbe{
//	    URL: "https://api.figma.com/v1/me",
//	})
//
//	if err := m.Start(ctx); err != nil {
//	    return err
//	}
//	defer m.Stop()
//
// Stop cancels the schedule and waits for the in-flight cycle, so it must
// run before the container releases the instances being probed.
//
// # Failure containment
//
// A probe that fails, times out, or panics marks its component as error
// and never escapes CheckComponent. Components are checked independently
// within a cycle, and the scheduler survives a cycle that fails at the
// top level: the monitor's job is to keep observing the system while
// parts of it are failing.
//
// # HTTP surface
//
// RegisterHandlers exposes the read surface (status, realtime metrics,
// components, alerts, metrics history, manual checks, summary, dashboard)
// on an http.ServeMux for consumption by a route layer.
package monitor
