package crmapi

import (
	"context"
	"encoding/json"
	"fmt"

	"crmdash/internal/metrics"
)

const (
	statsClients      = "clients"
	statsWorkers      = "workers"
	statsAppointments = "appointments"
)

func (c *Conn) statsKey(name string) string {
	return fmt.Sprintf("stats:%s:%s", c.scope, name)
}

func (c *Conn) cacheEnabled() bool {
	return c.client.redis != nil && c.client.cacheTTL > 0 && c.scope != ""
}

func (c *Conn) readCache(ctx context.Context, key string, out any) bool {
	if !c.cacheEnabled() {
		return false
	}
	val, err := c.client.redis.Get(ctx, key).Result()
	if err != nil {
		metrics.IncCache(false)
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCache(false)
		return false
	}
	metrics.IncCache(true)
	return true
}

func (c *Conn) writeCache(ctx context.Context, key string, val any) {
	if !c.cacheEnabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.client.redis.Set(ctx, key, data, c.client.cacheTTL).Err(); err != nil {
		c.client.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}

// invalidateStats drops every cached stats answer for this scope. Any write
// can move the counters of all three entity kinds.
func (c *Conn) invalidateStats(ctx context.Context) {
	if !c.cacheEnabled() {
		return
	}
	keys := []string{c.statsKey(statsClients), c.statsKey(statsWorkers), c.statsKey(statsAppointments)}
	if err := c.client.redis.Del(ctx, keys...).Err(); err != nil {
		c.client.logger.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

// getStats serves a stats endpoint through the cache.
func (c *Conn) getStats(ctx context.Context, name string, out any) error {
	key := c.statsKey(name)
	if c.readCache(ctx, key, out) {
		return nil
	}
	if err := c.do(ctx, "GET", "/"+name+"/stats/", nil, nil, out); err != nil {
		return err
	}
	c.writeCache(ctx, key, out)
	return nil
}

// write performs a mutating call and drops cached stats when it succeeds.
func (c *Conn) write(ctx context.Context, method, path string, body, out any) error {
	if err := c.do(ctx, method, path, nil, body, out); err != nil {
		return err
	}
	c.invalidateStats(ctx)
	return nil
}
