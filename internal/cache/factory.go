// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config selects a backend: Redis when RedisURL is set, memory otherwise.
type Config struct {
	RedisURL      string
	Prefix        string // Redis only
	DefaultTTL    time.Duration
	SweepInterval time.Duration // memory only, default one minute
}

// New creates the configured store. A Redis connection failure is returned
// rather than replaced by memory, since memory sessions would not be shared
// between instances.
func New(cfg Config, logger *slog.Logger) (Cache, error) {
	if cfg.RedisURL != "" {
		c, err := NewRedisCache(RedisCacheOptions{URL: cfg.RedisURL, Prefix: cfg.Prefix, DefaultTTL: cfg.DefaultTTL})
		if err != nil {
			return nil, err
		}
		logger.Info("using redis cache", "prefix", c.prefix)
		return c, nil
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	logger.Info("using memory cache")
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: cfg.DefaultTTL, SweepInterval: interval}), nil
}
