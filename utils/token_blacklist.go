package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blacklistKeyPrefix = "jwt:blacklist:"
	// blacklistPruneEvery bounds how often expired memory entries are dropped.
	blacklistPruneEvery = time.Minute
)

// TokenBlacklist remembers revoked tokens until they would have expired anyway.
// Redis is preferred; without it entries live in process memory.
type TokenBlacklist struct {
	rc *redis.Client

	now func() time.Time

	mu        sync.RWMutex
	entries   map[string]time.Time
	lastPrune time.Time
}

// NewTokenBlacklist returns a blacklist; rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, now: time.Now, entries: map[string]time.Time{}, lastPrune: time.Now()}
}

// Add revokes token until expiresAt.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) {
	now := b.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := b.rc.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.lastPrune) >= blacklistPruneEvery {
		for k, exp := range b.entries {
			if now.After(exp) {
				delete(b.entries, k)
			}
		}
		b.lastPrune = now
	}
	b.entries[token] = expiresAt
}

// Contains reports whether token was revoked and has not yet expired.
func (b *TokenBlacklist) Contains(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if n, err := b.rc.Exists(ctx, blacklistKeyPrefix+token).Result(); err == nil && n > 0 {
			return true
		}
	}
	b.mu.RLock()
	expiresAt, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if b.now().After(expiresAt) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false
	}
	return true
}
