// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogconsole/internal/cache"
)

const tokenPrefix = "session:"

// CacheStore is an scs store backed by a cache.Cache, so sessions live in
// memory or in Redis depending on configuration.
type CacheStore struct {
	cache cache.Cache
}

// NewCacheStore wraps c as an scs store.
func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

// FindCtx returns the session data for token.
func (s *CacheStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := s.cache.Get(ctx, tokenPrefix+token)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// CommitCtx stores session data until expiry.
func (s *CacheStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return s.DeleteCtx(ctx, token)
	}
	return s.cache.Set(ctx, tokenPrefix+token, b, ttl)
}

// DeleteCtx removes a session.
func (s *CacheStore) DeleteCtx(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, tokenPrefix+token)
}

// Find implements scs.Store.
func (s *CacheStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

// Commit implements scs.Store.
func (s *CacheStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

// Delete implements scs.Store.
func (s *CacheStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

var (
	_ scs.Store    = (*CacheStore)(nil)
	_ scs.CtxStore = (*CacheStore)(nil)
)
