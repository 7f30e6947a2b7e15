// Package tokencache provides a TTL in-memory cache for extracted design
// tokens.
//
// Entries are keyed by "file:node:token", expire after a configurable TTL,
// and are reclaimed by a background sweeper. The cache implements the
// container lifecycle hooks, so registering it in a service container
// starts and stops the sweeper with the rest of the system.
package tokencache
