package telemetry_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/svcops/telemetry"
)

func ExampleNewObserver() {
	cfg := telemetry.Config{
		ServiceName: "svcops",
		Version:     "1.0.0",
		Tracing:     telemetry.TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Logging:     telemetry.LoggingConfig{Enabled: true, Level: "info"},
	}

	obs, err := telemetry.NewObserver(context.Background(), cfg)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer obs.Shutdown(context.Background())

	_, span := obs.Tracer().Start(context.Background(), "monitor.cycle")
	span.End()

	fmt.Println("observer ready")
	// Output:
	// observer ready
}

func ExampleLogger() {
	var buf bytes.Buffer
	logger := telemetry.NewLoggerWithWriter("info", &buf).WithComponent("monitor")

	logger.Info(context.Background(), "component check failed",
		telemetry.F("target", "redis"),
		telemetry.F("token", "figd_secret"),
	)

	out := buf.String()
	fmt.Println("has component:", strings.Contains(out, `"component":"monitor"`))
	fmt.Println("leaks token:", strings.Contains(out, "figd_secret"))
	// Output:
	// has component: true
	// leaks token: false
}
