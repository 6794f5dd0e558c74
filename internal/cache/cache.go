// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package cache provides a thread-safe in-memory key-value store with
// per-entry TTL. It backs the captcha challenge store and the failed-login
// attempt tracker. The cache is purely in-process: its contents are lost on
// restart, which is an accepted tradeoff for these short-lived entries.
package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item with expiration.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// KeyInfo describes an unexpired entry for diagnostic inspection.
type KeyInfo struct {
	Key string        `json:"key"`
	TTL time.Duration `json:"ttl"`
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// Cache provides a thread-safe in-memory cache with per-entry TTL.
// Expired entries are evicted lazily on access and by a periodic sweep;
// both paths consult the same clock, so an entry is never visible past
// its expiry through either.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	clock   Clock
	stats   Stats
	done    chan struct{}
}

// New creates a cache using the given clock. Pass a FakeClock in tests to
// control expiry without sleeping. Entries carry their own TTL on Set; the
// cache has no default TTL.
func New(clock Clock) *Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache{
		entries: make(map[string]Entry),
		clock:   clock,
		done:    make(chan struct{}),
	}
}

// StartSweeper launches a background goroutine that evicts expired entries
// every interval. Call Stop to terminate it.
func (c *Cache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// Stop terminates the background sweeper, if running.
func (c *Cache) Stop() {
	close(c.done)
}

// Set stores value under key with the given TTL, overwriting any existing
// entry and resetting its expiry to now+ttl.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: now.Add(ttl),
	}
	c.stats.TotalKeys = int64(len(c.entries))
}

// Get returns the value for key if present and unexpired. An expired entry
// is treated as absent and removed.
func (c *Cache) Get(key string) (interface{}, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}

	if !now.Before(entry.ExpiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		return nil, false
	}

	c.stats.Hits++
	return entry.Data, true
}

// GetAndDelete atomically retrieves and removes the entry for key.
// At most one caller observes the value; concurrent callers see absent.
// This is the consume primitive for single-use captcha challenges.
func (c *Cache) GetAndDelete(key string) (interface{}, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}

	delete(c.entries, key)
	c.stats.Evictions++

	if !now.Before(entry.ExpiresAt) {
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return entry.Data, true
}

// Increment atomically adds one to the integer counter stored under key and
// refreshes its TTL (sliding window). An absent or expired entry counts from
// zero. Returns the new count. The read-modify-write is a single critical
// section, so concurrent increments are never lost.
func (c *Cache) Increment(key string, ttl time.Duration) int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	if entry, exists := c.entries[key]; exists && now.Before(entry.ExpiresAt) {
		if n, ok := entry.Data.(int); ok {
			count = n
		}
	}

	count++
	c.entries[key] = Entry{
		Data:      count,
		ExpiresAt: now.Add(ttl),
	}
	c.stats.TotalKeys = int64(len(c.entries))
	return count
}

// Delete removes the entry for key. No-op if absent.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.stats.Evictions++
}

// Keys returns all currently unexpired keys with their remaining TTL,
// for diagnostic inspection.
func (c *Cache) Keys() []KeyInfo {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]KeyInfo, 0, len(c.entries))
	for key, entry := range c.entries {
		if now.Before(entry.ExpiresAt) {
			keys = append(keys, KeyInfo{Key: key, TTL: entry.ExpiresAt.Sub(now)})
		}
	}
	return keys
}

// Len returns the number of currently unexpired entries.
func (c *Cache) Len() int {
	return len(c.Keys())
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.TotalKeys = int64(len(c.entries))
	return stats
}

// sweep removes all expired entries.
func (c *Cache) sweep() {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
	}
	c.stats.TotalKeys = int64(len(c.entries))
}
