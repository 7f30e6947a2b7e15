package monitor

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/procfs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MemoryUsage is a point-in-time heap usage sample.
type MemoryUsage struct {
	AllocBytes uint64  `json:"allocBytes"`
	SysBytes   uint64  `json:"sysBytes"`
	UsedPct    float64 `json:"usedPct"`
}

// ResponseTimeStats summarizes the recorded request response times.
type ResponseTimeStats struct {
	Average float64 `json:"average"`
	P95     float64 `json:"p95"`
}

// MetricsSnapshot is the continuously accumulated process metrics view,
// refreshed each monitoring cycle and used as alert-evaluation input.
type MetricsSnapshot struct {
	UptimeMs     int64             `json:"uptimeMs"`
	MemoryUsage  MemoryUsage       `json:"memoryUsage"`
	CPUUsage     float64           `json:"cpuUsage"`
	Requests     int64             `json:"requests"`
	Errors       int64             `json:"errors"`
	ResponseTime ResponseTimeStats `json:"responseTime"`
}

// MetricsBucket is one time-bucketed history sample.
type MetricsBucket struct {
	Timestamp      time.Time `json:"timestamp"`
	MemoryPct      float64   `json:"memoryPct"`
	CPUPct         float64   `json:"cpuPct"`
	ResponseTimeMs float64   `json:"responseTimeMs"`
}

// RecordRequest increments the request/error counters and appends to the
// response-time sample ring. The samples feed both the realtime metrics
// report and the error-rate alert.
func (m *Monitor) RecordRequest(success bool, duration time.Duration) {
	m.collector.record(success, duration)
	m.inst.recordRequest(context.Background(), success, duration)
}

// refreshSnapshot recomputes the metrics snapshot and appends a history
// bucket, trimming to the configured limit.
func (m *Monitor) refreshSnapshot() {
	snap := m.sampleMetrics()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = snap
	m.history = append(m.history, MetricsBucket{
		Timestamp:      time.Now(),
		MemoryPct:      snap.MemoryUsage.UsedPct,
		CPUPct:         snap.CPUUsage,
		ResponseTimeMs: snap.ResponseTime.Average,
	})
	if len(m.history) > m.cfg.HistoryLimit {
		m.history = m.history[len(m.history)-m.cfg.HistoryLimit:]
	}
}

// sampleMetrics builds a fresh snapshot from the runtime and the collector.
func (m *Monitor) sampleMetrics() MetricsSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	usedPct := 0.0
	if ms.Sys > 0 {
		usedPct = float64(ms.HeapAlloc) / float64(ms.Sys) * 100
	}

	requests, errs := m.collector.counts()
	avg, p95 := m.collector.responseStats()

	return MetricsSnapshot{
		UptimeMs: time.Since(m.startTime).Milliseconds(),
		MemoryUsage: MemoryUsage{
			AllocBytes: ms.HeapAlloc,
			SysBytes:   ms.Sys,
			UsedPct:    usedPct,
		},
		CPUUsage: m.collector.cpu.sample(),
		Requests: requests,
		Errors:   errs,
		ResponseTime: ResponseTimeStats{
			Average: avg,
			P95:     p95,
		},
	}
}

// collector accumulates request counters and response-time samples.
type collector struct {
	mu       sync.Mutex
	requests int64
	errors   int64
	samples  []float64 // milliseconds, bounded ring
	limit    int
	cpu      *cpuSampler
}

func newCollector(sampleLimit int) *collector {
	return &collector{
		limit: sampleLimit,
		cpu:   newCPUSampler(),
	}
}

func (c *collector) record(success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests++
	if !success {
		c.errors++
	}

	c.samples = append(c.samples, float64(duration.Nanoseconds())/1e6)
	if len(c.samples) > c.limit {
		c.samples = c.samples[len(c.samples)-c.limit:]
	}
}

func (c *collector) counts() (requests, errors int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests, c.errors
}

func (c *collector) responseStats() (average, p95 float64) {
	c.mu.Lock()
	samples := make([]float64, len(c.samples))
	copy(samples, c.samples)
	c.mu.Unlock()

	if len(samples) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	average = sum / float64(len(samples))

	sort.Float64s(samples)
	idx := int(float64(len(samples)) * 0.95)
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return average, samples[idx]
}

// cpuSampler derives a CPU usage percentage from /proc deltas between
// samples. Off Linux (or when procfs is unavailable) it reports zero.
type cpuSampler struct {
	mu      sync.Mutex
	proc    procfs.Proc
	ok      bool
	lastAt  time.Time
	lastCPU float64 // cumulative seconds
}

func newCPUSampler() *cpuSampler {
	s := &cpuSampler{}

	proc, err := procfs.Self()
	if err != nil {
		return s
	}
	stat, err := proc.Stat()
	if err != nil {
		return s
	}

	s.proc = proc
	s.ok = true
	s.lastAt = time.Now()
	s.lastCPU = stat.CPUTime()
	return s
}

func (s *cpuSampler) sample() float64 {
	if s == nil || !s.ok {
		return 0
	}

	stat, err := s.proc.Stat()
	if err != nil {
		return 0
	}
	total := stat.CPUTime()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(s.lastAt).Seconds()

	pct := 0.0
	if elapsed > 0 && total >= s.lastCPU {
		pct = (total - s.lastCPU) / elapsed * 100 / float64(runtime.NumCPU())
	}

	s.lastAt = now
	s.lastCPU = total
	return pct
}

// instruments holds the monitor's OpenTelemetry instruments. A nil
// *instruments is valid and records nothing.
type instruments struct {
	checksTotal   metric.Int64Counter
	checkErrors   metric.Int64Counter
	probeDuration metric.Float64Histogram
	requestsTotal metric.Int64Counter
	requestErrors metric.Int64Counter
	healthScore   metric.Float64Gauge
	openAlerts    metric.Int64Gauge
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	checksTotal, err := meter.Int64Counter(
		"monitor.checks.total",
		metric.WithDescription("Total number of component probes"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkErrors, err := meter.Int64Counter(
		"monitor.checks.errors",
		metric.WithDescription("Total number of failed component probes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	probeDuration, err := meter.Float64Histogram(
		"monitor.probe.duration_ms",
		metric.WithDescription("Component probe duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	requestsTotal, err := meter.Int64Counter(
		"monitor.requests.total",
		metric.WithDescription("Total number of recorded requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestErrors, err := meter.Int64Counter(
		"monitor.requests.errors",
		metric.WithDescription("Total number of recorded request errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	healthScore, err := meter.Float64Gauge(
		"monitor.health.score",
		metric.WithDescription("Overall system health score, 0-100"),
	)
	if err != nil {
		return nil, err
	}

	openAlerts, err := meter.Int64Gauge(
		"monitor.alerts.open",
		metric.WithDescription("Number of currently open alerts"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		checksTotal:   checksTotal,
		checkErrors:   checkErrors,
		probeDuration: probeDuration,
		requestsTotal: requestsTotal,
		requestErrors: requestErrors,
		healthScore:   healthScore,
		openAlerts:    openAlerts,
	}, nil
}

func (i *instruments) recordCheck(ctx context.Context, component string, elapsed time.Duration, err error) {
	if i == nil {
		return
	}

	opt := metric.WithAttributes(attribute.String("component", component))
	i.checksTotal.Add(ctx, 1, opt)
	if err != nil {
		i.checkErrors.Add(ctx, 1, opt)
	}
	i.probeDuration.Record(ctx, float64(elapsed.Nanoseconds())/1e6, opt)
}

func (i *instruments) recordRequest(ctx context.Context, success bool, _ time.Duration) {
	if i == nil {
		return
	}

	i.requestsTotal.Add(ctx, 1)
	if !success {
		i.requestErrors.Add(ctx, 1)
	}
}

func (i *instruments) recordOverall(ctx context.Context, o Overall) {
	if i == nil {
		return
	}
	i.healthScore.Record(ctx, float64(o.Score))
}

func (i *instruments) recordOpenAlerts(ctx context.Context, open int) {
	if i == nil {
		return
	}
	i.openAlerts.Record(ctx, int64(open))
}
