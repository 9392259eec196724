package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/entities"
	"linklytics-be/internal/repository"
)

// Resolver turns an inbound short code into the resolved link record whose
// Destination the caller redirects to, or fails
// with entities.ErrLinkNotFound / entities.ErrLinkGone.
type Resolver interface {
	Resolve(ctx context.Context, shortCode string) (*entities.Link, error)
}

type resolver struct {
	links  repository.LinkRepository
	cache  cache.Cache
	keys   cache.Keys
	ttl    cache.TTL
	logger *zap.Logger
}

// NewResolver creates a new resolver. cacheClient may be nil; resolution
// then always hits the store.
func NewResolver(links repository.LinkRepository, cacheClient cache.Cache, keys cache.Keys, ttl cache.TTL, logger *zap.Logger) Resolver {
	return &resolver{
		links:  links,
		cache:  cacheClient,
		keys:   keys,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve looks the code up cache-first. Only active, non-expired records
// are ever written to the cache; a cached record is still re-checked on
// every hit, so an entry whose embedded expiry has since passed, or one
// that was somehow cached in a bad state, self-evicts. Deactivating a link
// additionally relies on the update path deleting the cached entry, which
// makes the flip visible on the very next request.
func (r *resolver) Resolve(ctx context.Context, shortCode string) (*entities.Link, error) {
	key := r.keys.LinkByCode(shortCode)

	if r.cache != nil {
		var cached entities.Link
		err := r.cache.GetJSON(ctx, key, &cached)
		switch {
		case err == nil:
			if !cached.IsActive {
				r.evict(ctx, key)
				return nil, entities.ErrLinkNotFound
			}
			if cached.Expired(time.Now().UTC()) {
				r.evict(ctx, key)
				return nil, entities.ErrLinkGone
			}
			return &cached, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			// Fail open: a broken cache degrades to a store lookup
			r.logger.Warn("link cache read failed", zap.String("short_code", shortCode), zap.Error(err))
		}
	}

	link, err := r.links.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	// Inactive and expired records are never cached. Caching them would let
	// a stale entry keep answering for a deactivated link.
	if !link.IsActive {
		return nil, entities.ErrLinkNotFound
	}
	if link.Expired(time.Now().UTC()) {
		return nil, entities.ErrLinkGone
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, link, r.ttl.Medium); err != nil {
			r.logger.Warn("link cache write failed", zap.String("short_code", shortCode), zap.Error(err))
		}
	}
	return link, nil
}

func (r *resolver) evict(ctx context.Context, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("link cache evict failed", zap.String("key", key), zap.Error(err))
	}
}
