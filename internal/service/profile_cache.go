package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"accounts-be/internal/cache"
	"accounts-be/internal/models"
)

// ProfileCache caches GetSelf responses. Cache failures are logged and never
// fail a request. A nil *ProfileCache or nil backend disables caching.
type ProfileCache struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewProfileCache(c cache.Cache, ttl time.Duration, logger *slog.Logger) *ProfileCache {
	return &ProfileCache{cache: c, ttl: ttl, logger: logger}
}

func (p *ProfileCache) enabled() bool {
	return p != nil && p.cache != nil
}

func (p *ProfileCache) get(ctx context.Context, userID string) (*models.UserResponse, bool) {
	if !p.enabled() {
		return nil, false
	}
	var resp models.UserResponse
	if err := p.cache.GetJSON(ctx, cache.ProfileKey(userID), &resp); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.WarnContext(ctx, "profile cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	return &resp, true
}

func (p *ProfileCache) set(ctx context.Context, resp *models.UserResponse) {
	if !p.enabled() {
		return
	}
	if err := p.cache.SetJSON(ctx, cache.ProfileKey(resp.ID), resp, p.ttl); err != nil {
		p.logger.WarnContext(ctx, "profile cache write failed", "user_id", resp.ID, "error", err)
	}
}

func (p *ProfileCache) invalidate(ctx context.Context, userID string) {
	if !p.enabled() {
		return
	}
	if err := p.cache.Delete(ctx, cache.ProfileKey(userID)); err != nil {
		p.logger.WarnContext(ctx, "profile cache invalidation failed", "user_id", userID, "error", err)
	}
}
