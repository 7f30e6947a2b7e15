package container

import (
	"sync"

	"github.com/jonwraymond/svcops/telemetry"
)

// Factory constructs a service instance. It receives the container it is
// being resolved through (for lazy lookups, see package docs on logical
// cycles) and the resolved dependencies in registration order.
type Factory func(c *Container, deps ...any) (any, error)

// Registration describes a registered service. It is immutable once
// stored; re-registering a name replaces the registration but does not
// affect an already-instantiated singleton.
type Registration struct {
	Name         string
	Factory      Factory
	Singleton    bool
	Dependencies []string
}

// RegisterOption customizes a Registration.
type RegisterOption func(*Registration)

// Transient marks a registration as transient: a new instance is
// constructed on every Get. The default lifetime is singleton.
func Transient() RegisterOption {
	return func(r *Registration) {
		r.Singleton = false
	}
}

// DependsOn declares the named services as dependencies, resolved via Get
// before the factory is invoked and passed to it in order.
func DependsOn(names ...string) RegisterOption {
	return func(r *Registration) {
		r.Dependencies = append(r.Dependencies, names...)
	}
}

// Container is a name-keyed service registry, resolver, and lifecycle
// manager. The zero value is not usable; use New.
//
// Contract:
// - Concurrency: registry and cache access is safe for concurrent use.
//   Concurrent first-time Get calls for the same singleton are not
//   serialized: the factory may run more than once, but only the first
//   stored instance is ever returned afterwards. Factories with
//   per-invocation side effects are a usage error.
type Container struct {
	mu            sync.RWMutex
	registrations map[string]*Registration
	instances     map[string]any
	order         []string // construction order of cached singletons
	parent        *Container
	logger        telemetry.Logger
}

// Option customizes a Container.
type Option func(*Container)

// WithLogger sets the structured logger used for lifecycle events.
// Defaults to a no-op logger.
func WithLogger(l telemetry.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		registrations: make(map[string]*Registration),
		instances:     make(map[string]any),
		logger:        telemetry.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register stores a registration for name. Nothing is constructed until
// the first Get (lazy). Registering an existing name overwrites the
// registration; an already-cached singleton instance is left in place.
func (c *Container) Register(name string, factory Factory, opts ...RegisterOption) {
	reg := &Registration{
		Name:      name,
		Factory:   factory,
		Singleton: true,
	}
	for _, opt := range opts {
		opt(reg)
	}

	c.mu.Lock()
	c.registrations[name] = reg
	c.mu.Unlock()
}

// Get resolves name to an instance. Singletons are constructed once and
// cached; transients are constructed on every call. Dependencies are
// resolved recursively first. Returns a NotRegisteredError if name has no
// registration, or a FactoryError if construction fails.
func (c *Container) Get(name string) (any, error) {
	reg := c.registration(name)
	if reg == nil {
		return nil, &NotRegisteredError{Service: name}
	}

	if reg.Singleton {
		if inst, ok := c.cachedInstance(name); ok {
			return inst, nil
		}
	}

	if reg.Factory == nil {
		return nil, &FactoryError{Service: name, Err: ErrNilFactory}
	}

	deps := make([]any, 0, len(reg.Dependencies))
	for _, dep := range reg.Dependencies {
		if dep == name {
			// Self-registration marks a container back-reference; the
			// factory already receives the container, so there is
			// nothing to resolve.
			continue
		}
		resolved, err := c.Get(dep)
		if err != nil {
			return nil, err
		}
		deps = append(deps, resolved)
	}

	inst, err := reg.Factory(c, deps...)
	if err != nil {
		return nil, &FactoryError{Service: name, Err: err}
	}

	if !reg.Singleton {
		return inst, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[name]; ok {
		// Lost a race with a concurrent first-time Get; the stored
		// instance stays authoritative.
		return existing, nil
	}
	c.instances[name] = inst
	c.order = append(c.order, name)
	return inst, nil
}

// MustGet is Get, panicking on error. Intended for wiring code where a
// missing registration is a programming error.
func (c *Container) MustGet(name string) any {
	inst, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return inst
}

// Has reports whether name is registered, locally or in a parent. It does
// not depend on instantiation state.
func (c *Container) Has(name string) bool {
	return c.registration(name) != nil
}

// Instantiated reports whether a singleton instance for name is cached,
// locally or in a parent.
func (c *Container) Instantiated(name string) bool {
	_, ok := c.cachedInstance(name)
	return ok
}

// RegisteredServices returns the locally registered service names.
func (c *Container) RegisteredServices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.registrations))
	for name := range c.registrations {
		names = append(names, name)
	}
	return names
}

// NewChild returns a container with an empty local registry and instance
// cache that falls back to this container for any name not locally
// registered or instantiated. Parent singletons are shared by reference.
// Local registrations shadow the parent without mutating it.
func (c *Container) NewChild() *Container {
	return &Container{
		registrations: make(map[string]*Registration),
		instances:     make(map[string]any),
		parent:        c,
		logger:        c.logger,
	}
}

// registration looks up a registration locally, then through the parent
// chain.
func (c *Container) registration(name string) *Registration {
	c.mu.RLock()
	reg := c.registrations[name]
	c.mu.RUnlock()

	if reg == nil && c.parent != nil {
		return c.parent.registration(name)
	}
	return reg
}

// cachedInstance looks up a cached singleton locally, then through the
// parent chain.
func (c *Container) cachedInstance(name string) (any, bool) {
	c.mu.RLock()
	inst, ok := c.instances[name]
	c.mu.RUnlock()

	if !ok && c.parent != nil {
		return c.parent.cachedInstance(name)
	}
	return inst, ok
}

// constructionOrder returns a copy of the local construction order.
func (c *Container) constructionOrder() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	order := make([]string, len(c.order))
	copy(order, c.order)
	return order
}
