package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/svcops/telemetry"
)

// Initializer is the optional initialization hook. A dependency's
// Initialize completes before its dependents' during InitializeAll.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Shutdowner is the optional teardown hook, invoked in reverse
// construction order during Shutdown.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Health is the result of a service's health-check hook.
type Health struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthReporter is the optional synchronous health-check hook. Services
// lacking it are treated as not health-checkable.
type HealthReporter interface {
	HealthCheck(ctx context.Context) (Health, error)
}

// ServiceHealth describes one instantiated service in a HealthReport.
type ServiceHealth struct {
	Status         string  `json:"status"`
	HasHealthCheck bool    `json:"hasHealthCheck"`
	Health         *Health `json:"health,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// HealthReport is the container-level health snapshot.
type HealthReport struct {
	TotalServices        int                      `json:"totalServices"`
	InstantiatedServices int                      `json:"instantiatedServices"`
	Services             map[string]ServiceHealth `json:"services"`
}

// InitializeAll invokes the Initialize hook of every instantiated service,
// in an order where a dependency's hook completes before its dependents'.
// The first failure aborts the remaining initializations and is returned
// as an InitError: a partially initialized system must not be treated as
// ready.
func (c *Container) InitializeAll(ctx context.Context) error {
	// Construction order already places dependencies before dependents;
	// the recursive walk covers instances whose declared dependencies
	// were constructed through a different path.
	done := make(map[string]bool)
	for _, name := range c.constructionOrder() {
		if err := c.initializeService(ctx, name, done); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) initializeService(ctx context.Context, name string, done map[string]bool) error {
	if done[name] {
		return nil
	}
	done[name] = true

	if reg := c.registration(name); reg != nil {
		for _, dep := range reg.Dependencies {
			if dep == name {
				// Self-registration: recursing would never terminate.
				continue
			}
			if !c.Instantiated(dep) {
				continue
			}
			if err := c.initializeService(ctx, dep, done); err != nil {
				return err
			}
		}
	}

	inst, ok := c.cachedInstance(name)
	if !ok {
		return nil
	}

	init, ok := inst.(Initializer)
	if !ok {
		return nil // no hook: always-ready
	}

	c.logger.Debug(ctx, "initializing service", telemetry.F("service", name))
	if err := init.Initialize(ctx); err != nil {
		return &InitError{Service: name, Err: err}
	}
	return nil
}

// Shutdown invokes every instantiated service's Shutdown hook in reverse
// construction order. A single hook's failure is logged and collected but
// does not prevent the remaining services from being shut down: teardown
// must be maximally thorough. After all hooks run, the instance cache is
// cleared entirely. The collected failures are returned joined.
func (c *Container) Shutdown(ctx context.Context) error {
	order := c.constructionOrder()

	c.mu.RLock()
	instances := make(map[string]any, len(c.instances))
	for name, inst := range c.instances {
		instances[name] = inst
	}
	c.mu.RUnlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		sd, ok := instances[name].(Shutdowner)
		if !ok {
			continue
		}
		if err := c.shutdownService(ctx, name, sd); err != nil {
			c.logger.Error(ctx, "service shutdown failed",
				telemetry.F("service", name),
				telemetry.F("error", err.Error()),
			)
			errs = append(errs, &ShutdownError{Service: name, Err: err})
		}
	}

	c.mu.Lock()
	c.instances = make(map[string]any)
	c.order = nil
	c.mu.Unlock()

	return errors.Join(errs...)
}

// shutdownService contains a single hook invocation, converting a panic
// into an error so one misbehaving service cannot abort the teardown walk.
func (c *Container) shutdownService(ctx context.Context, name string, sd Shutdowner) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in shutdown of %q: %v", name, r)
		}
	}()
	return sd.Shutdown(ctx)
}

// HealthStatus invokes the HealthCheck hook of every instantiated service
// and records the result. A hook that returns an error or panics is
// recorded as status "error" with the message attached; the call itself
// never fails.
func (c *Container) HealthStatus(ctx context.Context) HealthReport {
	c.mu.RLock()
	total := len(c.registrations)
	instances := make(map[string]any, len(c.instances))
	for name, inst := range c.instances {
		instances[name] = inst
	}
	c.mu.RUnlock()

	report := HealthReport{
		TotalServices:        total,
		InstantiatedServices: len(instances),
		Services:             make(map[string]ServiceHealth, len(instances)),
	}

	for name, inst := range instances {
		sh := ServiceHealth{Status: "instantiated"}

		if reporter, ok := inst.(HealthReporter); ok {
			sh.HasHealthCheck = true
			health, err := c.checkService(ctx, reporter)
			if err != nil {
				sh.Health = &Health{Status: "error"}
				sh.Error = err.Error()
			} else {
				sh.Health = &health
			}
		}

		report.Services[name] = sh
	}

	return report
}

func (c *Container) checkService(ctx context.Context, reporter HealthReporter) (health Health, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in health check: %v", r)
		}
	}()
	return reporter.HealthCheck(ctx)
}
