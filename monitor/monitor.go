package monitor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/svcops/container"
	"github.com/jonwraymond/svcops/telemetry"
)

// Config holds the monitor's tunable thresholds and cadence. The zero
// value is usable; every field has a default.
type Config struct {
	// Interval between scheduled check cycles. Default: 30 seconds.
	Interval time.Duration

	// ProbeTimeout bounds each component probe so one slow dependency
	// cannot stall a cycle. Default: 5 seconds.
	ProbeTimeout time.Duration

	// ResponseTimeWarn is the probe latency at/above which a successful
	// probe marks its component degraded. Default: 1 second.
	ResponseTimeWarn time.Duration

	// MemoryWarnPct is the heap usage percentage that raises a warning
	// alert. Default: 85.
	MemoryWarnPct float64

	// ErrorRateWarnPct is the recorded request error percentage that
	// raises a warning alert. Default: 10.
	ErrorRateWarnPct float64

	// HistoryLimit caps the metrics history buckets. Default: 288.
	HistoryLimit int

	// SampleLimit caps the response-time sample ring. Default: 1000.
	SampleLimit int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.ResponseTimeWarn <= 0 {
		c.ResponseTimeWarn = time.Second
	}
	if c.MemoryWarnPct <= 0 {
		c.MemoryWarnPct = 85
	}
	if c.ErrorRateWarnPct <= 0 {
		c.ErrorRateWarnPct = 10
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 288
	}
	if c.SampleLimit <= 0 {
		c.SampleLimit = 1000
	}
	return c
}

// component pairs a registered component with its probe.
type component struct {
	name        string
	criticality Criticality
	probe       Prober
}

// Monitor owns the component registry, the per-component status table,
// the alert list, and the metrics collector. All state is value-owned so
// multiple isolated monitors can coexist in tests.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use. Overlapping
//   checks of the same component are last-probe-to-finish-wins at the
//   granularity of a whole status record.
type Monitor struct {
	cfg       Config
	container *container.Container
	logger    telemetry.Logger
	tracer    trace.Tracer
	inst      *instruments

	mu         sync.RWMutex
	components map[string]*component
	order      []string // registration order
	statuses   map[string]*ComponentStatus
	alerts     []*Alert
	history    []MetricsBucket
	snapshot   MetricsSnapshot

	collector *collector
	startTime time.Time

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l telemetry.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l.WithComponent("monitor")
		}
	}
}

// WithObserver wires the monitor's tracer and meter from a telemetry
// Observer. Defaults to no-op providers.
func WithObserver(obs telemetry.Observer) Option {
	return func(m *Monitor) {
		if obs == nil {
			return
		}
		m.tracer = obs.Tracer()
		inst, err := newInstruments(obs.Meter())
		if err != nil {
			// Telemetry is best-effort; instruments stay no-op.
			m.logger.Warn(context.Background(), "failed to create metric instruments",
				telemetry.F("error", err.Error()))
			return
		}
		m.inst = inst
		if l := obs.Logger(); l != nil {
			m.logger = l.WithComponent("monitor")
		}
	}
}

// New creates a monitor over the given container. Components are added
// with RegisterComponent; nothing is probed until Start, RunManualCheck,
// or PerformHealthCheck.
func New(c *container.Container, cfg Config, opts ...Option) (*Monitor, error) {
	if c == nil {
		return nil, ErrNilContainer
	}

	cfg = cfg.withDefaults()
	m := &Monitor{
		cfg:        cfg,
		container:  c,
		logger:     telemetry.NewNopLogger(),
		tracer:     tracenoop.NewTracerProvider().Tracer("noop"),
		components: make(map[string]*component),
		statuses:   make(map[string]*ComponentStatus),
		collector:  newCollector(cfg.SampleLimit),
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RegisterComponent adds a component descriptor. Its status record is
// created lazily on first probe. Re-registering a name replaces the probe
// and criticality but keeps any accumulated status.
func (m *Monitor) RegisterComponent(name string, criticality Criticality, probe Prober) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.components[name]; !exists {
		m.order = append(m.order, name)
	}
	m.components[name] = &component{name: name, criticality: criticality, probe: probe}
}

// Components returns the registered component names in registration order.
func (m *Monitor) Components() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// CheckComponent probes one component, applies the status state machine,
// and replaces its status record wholesale. A probe failure is contained
// here and recorded as StatusError; the returned error is non-nil only
// for an unregistered name.
func (m *Monitor) CheckComponent(ctx context.Context, name string) (ComponentStatus, error) {
	m.mu.RLock()
	comp := m.components[name]
	m.mu.RUnlock()

	if comp == nil {
		return ComponentStatus{}, &UnknownComponentError{Component: name}
	}

	ctx, span := m.tracer.Start(ctx, "monitor.check",
		trace.WithAttributes(attribute.String("component", name)))
	defer span.End()

	start := time.Now()
	details, probeErr := m.runProbe(ctx, comp.probe)
	elapsed := time.Since(start)

	m.mu.Lock()
	prev := ComponentStatus{
		Name:        name,
		Criticality: comp.criticality,
		Status:      StatusUnknown,
	}
	if existing := m.statuses[name]; existing != nil {
		prev = *existing
	}

	next := transition(prev, elapsed, details, probeErr, m.cfg.ResponseTimeWarn)
	next.Criticality = comp.criticality
	m.statuses[name] = &next

	if prev.Status == StatusError && next.Status != StatusError {
		// Single success recovers: close the component's open alerts.
		m.resolveComponentAlertsLocked(name)
	}
	m.mu.Unlock()

	m.inst.recordCheck(ctx, name, elapsed, probeErr)
	if probeErr != nil {
		m.logger.Warn(ctx, "component check failed",
			telemetry.F("component", name),
			telemetry.F("status", string(next.Status)),
			telemetry.F("consecutiveErrors", next.ConsecutiveErrors),
			telemetry.F("error", probeErr.Error()),
		)
	}

	return next, nil
}

// RunManualCheck forces an immediate check of one component outside the
// schedule. It writes to the same status record as scheduled cycles.
func (m *Monitor) RunManualCheck(ctx context.Context, name string) (ComponentStatus, error) {
	return m.CheckComponent(ctx, name)
}

// PerformHealthCheck runs CheckComponent for every registered component.
// Checks are issued concurrently with no ordering guarantee; each is
// individually contained so one component's failure cannot prevent the
// others from being checked. The metrics snapshot is refreshed afterwards.
func (m *Monitor) PerformHealthCheck(ctx context.Context) {
	ctx, span := m.tracer.Start(ctx, "monitor.cycle")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range m.Components() {
		g.Go(func() error {
			// CheckComponent contains probe failures; it only errors
			// for a concurrently unregistered name, which we drop.
			_, _ = m.CheckComponent(gctx, name)
			return nil
		})
	}
	_ = g.Wait()

	m.refreshSnapshot()
	m.inst.recordOverall(ctx, m.overall())
}

// Start schedules PerformHealthCheck followed by alert evaluation on a
// fixed repeating interval, running the first cycle immediately. A cycle
// that fails at the top level is caught and logged and the schedule
// continues. Returns ErrAlreadyStarted when already running.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go m.run(ctx)

	m.logger.Info(ctx, "monitoring started",
		telemetry.F("interval", m.cfg.Interval.String()),
		telemetry.F("components", len(m.Components())),
	)
	return nil
}

// Stop cancels the schedule and waits for the in-flight cycle. It is
// idempotent. Callers must Stop before releasing container instances so
// no probe executes against a freed resource.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.cancel = nil

	m.logger.Info(context.Background(), "monitoring stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

// cycle is a terminal catch boundary: monitoring must be self-healing, so
// a panicking cycle is logged and the schedule continues.
func (m *Monitor) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(ctx, "monitoring cycle panicked", telemetry.F("panic", r))
		}
	}()

	m.PerformHealthCheck(ctx)
	m.CheckAlertConditions(ctx)
}
