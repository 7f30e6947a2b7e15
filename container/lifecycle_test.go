package container

import (
	"context"
	"errors"
	"testing"
)

// lifecycleService records hook invocations into a shared journal.
type lifecycleService struct {
	name        string
	journal     *[]string
	initErr     error
	shutdownErr error
	healthErr   error
	health      Health
	panicHealth bool
}

func (s *lifecycleService) Initialize(ctx context.Context) error {
	*s.journal = append(*s.journal, "init:"+s.name)
	return s.initErr
}

func (s *lifecycleService) Shutdown(ctx context.Context) error {
	*s.journal = append(*s.journal, "shutdown:"+s.name)
	return s.shutdownErr
}

func (s *lifecycleService) HealthCheck(ctx context.Context) (Health, error) {
	if s.panicHealth {
		panic("health check exploded")
	}
	return s.health, s.healthErr
}

func registerLifecycle(c *Container, name string, journal *[]string, opts ...RegisterOption) *lifecycleService {
	svc := &lifecycleService{name: name, journal: journal, health: Health{Status: "healthy"}}
	c.Register(name, func(c *Container, deps ...any) (any, error) {
		return svc, nil
	}, opts...)
	return svc
}

func TestInitializeAll_DependencyOrder(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "db", &journal)
	registerLifecycle(c, "repo", &journal, DependsOn("db"))
	registerLifecycle(c, "api", &journal, DependsOn("repo"))

	if _, err := c.Get("api"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	if err := c.InitializeAll(context.Background()); err != nil {
		t.Fatalf("InitializeAll() error = %v", err)
	}

	want := []string{"init:db", "init:repo", "init:api"}
	if len(journal) != len(want) {
		t.Fatalf("journal = %v, want %v", journal, want)
	}
	for i, entry := range want {
		if journal[i] != entry {
			t.Errorf("journal[%d] = %q, want %q", i, journal[i], entry)
		}
	}
}

func TestInitializeAll_EachHookOnce(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "db", &journal)
	registerLifecycle(c, "repoA", &journal, DependsOn("db"))
	registerLifecycle(c, "repoB", &journal, DependsOn("db"))

	if _, err := c.Get("repoA"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := c.Get("repoB"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	if err := c.InitializeAll(context.Background()); err != nil {
		t.Fatalf("InitializeAll() error = %v", err)
	}

	inits := 0
	for _, entry := range journal {
		if entry == "init:db" {
			inits++
		}
	}
	if inits != 1 {
		t.Errorf("db initialized %d times, want 1", inits)
	}
}

func TestInitializeAll_FailFast(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "db", &journal).initErr = errors.New("connect refused")
	registerLifecycle(c, "api", &journal, DependsOn("db"))

	if _, err := c.Get("api"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	err := c.InitializeAll(context.Background())
	if err == nil {
		t.Fatal("InitializeAll() should fail fast on the first hook error")
	}

	var ie *InitError
	if !errors.As(err, &ie) {
		t.Fatalf("error should be an *InitError, got %T", err)
	}
	if ie.Service != "db" {
		t.Errorf("InitError.Service = %q, want %q", ie.Service, "db")
	}

	for _, entry := range journal {
		if entry == "init:api" {
			t.Error("dependent hook ran after a dependency failed")
		}
	}
}

func TestInitializeAll_SkipsSelfDependency(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "loop", &journal, DependsOn("loop"))

	if _, err := c.Get("loop"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	if err := c.InitializeAll(context.Background()); err != nil {
		t.Fatalf("InitializeAll() error = %v", err)
	}
	if len(journal) != 1 || journal[0] != "init:loop" {
		t.Errorf("journal = %v, want a single init:loop", journal)
	}
}

func TestShutdown_ReverseConstructionOrder(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "db", &journal)
	registerLifecycle(c, "repo", &journal, DependsOn("db"))
	registerLifecycle(c, "api", &journal, DependsOn("repo"))

	if _, err := c.Get("api"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"shutdown:api", "shutdown:repo", "shutdown:db"}
	if len(journal) != len(want) {
		t.Fatalf("journal = %v, want %v", journal, want)
	}
	for i, entry := range want {
		if journal[i] != entry {
			t.Errorf("journal[%d] = %q, want %q", i, journal[i], entry)
		}
	}
}

func TestShutdown_BestEffortAndClearsCache(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "db", &journal)
	registerLifecycle(c, "repo", &journal, DependsOn("db")).shutdownErr = errors.New("flush failed")
	registerLifecycle(c, "api", &journal, DependsOn("repo"))

	if _, err := c.Get("api"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	err := c.Shutdown(context.Background())
	if err == nil {
		t.Fatal("Shutdown() should report the failed hook")
	}

	var se *ShutdownError
	if !errors.As(err, &se) {
		t.Fatalf("error should contain a *ShutdownError, got %T", err)
	}
	if se.Service != "repo" {
		t.Errorf("ShutdownError.Service = %q, want %q", se.Service, "repo")
	}

	if len(journal) != 3 {
		t.Errorf("all shutdown hooks should run despite the failure, journal = %v", journal)
	}
	if c.Instantiated("db") || c.Instantiated("repo") || c.Instantiated("api") {
		t.Error("instance cache should be cleared after Shutdown")
	}
}

func TestShutdown_ContainsPanic(t *testing.T) {
	c := New()

	c.Register("bad", func(c *Container, deps ...any) (any, error) {
		return panicOnShutdown{}, nil
	})
	var journal []string
	registerLifecycle(c, "good", &journal)

	if _, err := c.Get("good"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := c.Get("bad"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	journal = journal[:0]
	if err := c.Shutdown(context.Background()); err == nil {
		t.Error("Shutdown() should report the panicking hook")
	}
	if len(journal) != 1 || journal[0] != "shutdown:good" {
		t.Errorf("remaining hooks should still run, journal = %v", journal)
	}
}

type panicOnShutdown struct{}

func (panicOnShutdown) Shutdown(ctx context.Context) error {
	panic("shutdown exploded")
}

func TestHealthStatus_ReportsServices(t *testing.T) {
	c := New()
	var journal []string

	svc := registerLifecycle(c, "checked", &journal)
	svc.health = Health{Status: "healthy", Details: map[string]any{"pool": 3}}

	c.Register("plain", func(c *Container, deps ...any) (any, error) {
		return struct{}{}, nil
	})
	c.Register("never-built", func(c *Container, deps ...any) (any, error) {
		return struct{}{}, nil
	})

	if _, err := c.Get("checked"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := c.Get("plain"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	report := c.HealthStatus(context.Background())

	if report.TotalServices != 3 {
		t.Errorf("TotalServices = %d, want 3", report.TotalServices)
	}
	if report.InstantiatedServices != 2 {
		t.Errorf("InstantiatedServices = %d, want 2", report.InstantiatedServices)
	}

	checked := report.Services["checked"]
	if !checked.HasHealthCheck {
		t.Error("checked service should report HasHealthCheck")
	}
	if checked.Health == nil || checked.Health.Status != "healthy" {
		t.Errorf("checked Health = %+v, want healthy", checked.Health)
	}

	plain := report.Services["plain"]
	if plain.HasHealthCheck {
		t.Error("plain service should not report HasHealthCheck")
	}
	if plain.Status != "instantiated" {
		t.Errorf("plain Status = %q, want instantiated", plain.Status)
	}

	if _, ok := report.Services["never-built"]; ok {
		t.Error("uninstantiated services should not appear in the report")
	}
}

func TestHealthStatus_CapturesHookError(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "flaky", &journal).healthErr = errors.New("redis gone")

	if _, err := c.Get("flaky"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	report := c.HealthStatus(context.Background())
	flaky := report.Services["flaky"]
	if flaky.Health == nil || flaky.Health.Status != "error" {
		t.Errorf("flaky Health = %+v, want error status", flaky.Health)
	}
	if flaky.Error == "" {
		t.Error("flaky Error message should be recorded")
	}
}

func TestHealthStatus_CapturesHookPanic(t *testing.T) {
	c := New()
	var journal []string

	registerLifecycle(c, "explosive", &journal).panicHealth = true

	if _, err := c.Get("explosive"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	report := c.HealthStatus(context.Background())
	svc := report.Services["explosive"]
	if svc.Health == nil || svc.Health.Status != "error" {
		t.Errorf("Health = %+v, want error status", svc.Health)
	}
}
