package tokencache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/svcops/container"
	"github.com/jonwraymond/svcops/telemetry"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey  = errors.New("tokencache: key is invalid")
	ErrKeyTooLong  = errors.New("tokencache: key exceeds max length")
	ErrAlreadyInit = errors.New("tokencache: already initialized")
)

// Key derives the cache key for a token extracted from a Figma node.
func Key(fileKey, nodeID, token string) string {
	return fileKey + ":" + nodeID + ":" + token
}

// ValidateKey checks if a key is usable for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Config controls cache TTL and sweeping.
type Config struct {
	// TTL is the default lifetime of an entry. Defaults to 5 minutes.
	TTL time.Duration
	// SweepInterval is how often the sweeper reclaims expired entries.
	// Defaults to 1 minute.
	SweepInterval time.Duration
	// Logger receives sweep events. Defaults to a no-op logger.
	Logger telemetry.Logger
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.Logger == nil {
		c.Logger = telemetry.NewNopLogger()
	}
	return c
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a TTL in-memory token cache with a background sweeper.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on miss or expiry.
// - Lifecycle: Initialize starts the sweeper, Shutdown stops it. Both are
//   typically driven by a service container; using the cache without
//   initializing it works, but expired entries are then reclaimed only
//   lazily on Get.
type Cache struct {
	cfg Config

	mu      sync.RWMutex
	entries map[string]entry

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a token cache. The sweeper is not running until Initialize.
func New(cfg Config) *Cache {
	return &Cache{
		cfg:     cfg.withDefaults(),
		entries: make(map[string]entry),
	}
}

// Get retrieves a cached value. Returns (nil, false) on miss or expiry.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores a value under the configured TTL.
func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(c.cfg.TTL),
	}
	c.mu.Unlock()
	return nil
}

// SetWithTTL stores a value with an explicit TTL. TTL<=0 means no caching.
func (c *Cache) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Delete removes a cached value. Idempotent, no error on miss.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired ones included until swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// sweep removes expired entries and returns how many it reclaimed.
func (c *Cache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Initialize starts the background sweeper. Calling it on a cache whose
// sweeper is already running is an error.
func (c *Cache) Initialize(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.cancel != nil {
		return ErrAlreadyInit
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(runCtx)

	c.cfg.Logger.Debug(ctx, "token cache sweeper started",
		telemetry.F("ttl", c.cfg.TTL.String()),
		telemetry.F("sweepInterval", c.cfg.SweepInterval.String()),
	)
	return nil
}

func (c *Cache) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := c.sweep(now); removed > 0 {
				c.cfg.Logger.Debug(ctx, "token cache swept",
					telemetry.F("removed", removed),
				)
			}
		}
	}
}

// Shutdown stops the sweeper and drops all entries. Idempotent.
func (c *Cache) Shutdown(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.cancel == nil {
		return nil
	}
	c.cancel()
	c.cancel = nil
	c.wg.Wait()

	c.Purge()
	c.cfg.Logger.Debug(ctx, "token cache sweeper stopped")
	return nil
}

// HealthCheck reports the entry count and sweeper liveness.
func (c *Cache) HealthCheck(_ context.Context) (container.Health, error) {
	c.runMu.Lock()
	running := c.cancel != nil
	c.runMu.Unlock()

	status := "healthy"
	if !running {
		status = "degraded"
	}

	return container.Health{
		Status: status,
		Details: map[string]any{
			"entries":        c.Len(),
			"sweeperRunning": running,
		},
	}, nil
}

// Lifecycle hook assertions.
var (
	_ container.Initializer    = (*Cache)(nil)
	_ container.Shutdowner     = (*Cache)(nil)
	_ container.HealthReporter = (*Cache)(nil)
)

// String describes the cache for logs.
func (c *Cache) String() string {
	return fmt.Sprintf("tokencache(ttl=%s, entries=%d)", c.cfg.TTL, c.Len())
}
