// Package container provides a name-keyed dependency-injection container
// with lazy construction, singleton and transient lifetimes, and explicit
// lifecycle ordering.
//
// Services are registered as factories and constructed on first resolution.
// A singleton is cached after its first construction (racing first
// resolutions keep the first stored instance); transients are constructed
// on every Get. Dependencies are declared by name and resolved recursively
// before the factory is invoked.
//
// # Basic Usage
//
//	c := container.New()
//
//	c.Register("config", func(c *container.Container, deps ...any) (any, error) {
//	    return LoadConfig()
//	})
//	c.Register("figma", func(c *container.Container, deps ...any) (any, error) {
//	    cfg := deps[0].(*Config)
//	    return NewFigmaClient(cfg), nil
//	}, container.DependsOn("config"))
//
//	svc, err := c.Get("figma")
//
// # Lifecycle
//
// Services may optionally implement Initializer, Shutdowner, or
// HealthReporter. The container checks for these capabilities at call
// time; services lacking them are treated as always-ready.
//
//	if err := c.InitializeAll(ctx); err != nil {
//	    // fail-fast: the system must not report itself ready
//	}
//	defer c.Shutdown(ctx) // reverse construction order, best-effort
//
// # Logical cycles
//
// The container performs no automatic cycle detection. A service that
// logically depends on something that depends back on it should hold the
// container reference passed to its factory and call Get lazily on first
// use instead of declaring the dependency.
//
// # Scoped overrides
//
// NewChild returns a container with an empty local registry that falls
// back to the parent for anything not locally registered or instantiated.
// Already-built parent singletons are shared by reference, which makes
// children cheap scopes for tests and sub-contexts.
package container
