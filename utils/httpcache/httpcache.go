// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpcache provides the response-cache backends used by the
// transport layer: an in-process TTL map for single runs and a Redis store
// for sharing across processes. Both are initialized once and shared by
// reference across all source adapters.
package httpcache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Memory is an in-process TTL cache. Expired entries are dropped lazily on
// read and swept whenever the map grows past sweepThreshold.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

const sweepThreshold = 4096

// NewMemory builds an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the cached value when present and not expired.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		delete(m.entries, key)

		return nil, false
	}

	return entry.value, true
}

// Set stores a value for ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= sweepThreshold {
		now := time.Now()
		for k, entry := range m.entries {
			if now.After(entry.expiresAt) {
				delete(m.entries, k)
			}
		}
	}

	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Redis stores responses in a Redis instance, so several batch workers or
// server replicas share one cache. Errors degrade to cache misses; the
// transport never fails because the cache is down.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an opened client. prefix namespaces the keys.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "georesolver:http:"
	}

	return &Redis{client: client, prefix: prefix}
}

// OpenRedis opens a client for addr; empty addr yields nil, meaning caching
// stays in-process.
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// Get implements the cache contract.
func (r *Redis) Get(key string) ([]byte, bool) {
	value, err := r.client.Get(context.Background(), r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	return value, true
}

// Set implements the cache contract.
func (r *Redis) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	r.client.Set(context.Background(), r.prefix+key, value, ttl)
}
