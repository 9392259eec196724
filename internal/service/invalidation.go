package service

import (
	"context"

	"go.uber.org/zap"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/entities"
)

// linkInvalidator drops every cache entry whose value could be stale after
// a link changed: the record itself (by code and by id), the link's click
// pages, and the owner's list and analytics snapshots. The sweep is
// deliberately pattern-broad rather than surgical; a higher miss rate is
// the price for never serving a stale rollup. All failures are logged and
// otherwise ignored (writes/deletes fail open).
type linkInvalidator struct {
	cache  cache.Cache
	keys   cache.Keys
	logger *zap.Logger
}

func (inv *linkInvalidator) invalidateLink(ctx context.Context, link *entities.Link) {
	if inv.cache == nil {
		return
	}

	if err := inv.cache.Delete(ctx, inv.keys.LinkByCode(link.ShortCode), inv.keys.LinkByID(link.ID)); err != nil {
		inv.logger.Warn("failed to invalidate link record", zap.String("link_id", link.ID), zap.Error(err))
	}
	if err := inv.cache.DeletePattern(ctx, inv.keys.LinkClicksPattern(link.ID)); err != nil {
		inv.logger.Warn("failed to invalidate click pages", zap.String("link_id", link.ID), zap.Error(err))
	}
	if link.OwnerID != nil {
		inv.invalidateOwner(ctx, *link.OwnerID)
	}
}

func (inv *linkInvalidator) invalidateOwner(ctx context.Context, ownerID string) {
	if inv.cache == nil {
		return
	}

	if err := inv.cache.DeletePattern(ctx, inv.keys.OwnerLinksPattern(ownerID)); err != nil {
		inv.logger.Warn("failed to invalidate owner link list", zap.String("owner_id", ownerID), zap.Error(err))
	}
	if err := inv.cache.DeletePattern(ctx, inv.keys.OwnerAnalyticsPattern(ownerID)); err != nil {
		inv.logger.Warn("failed to invalidate owner analytics", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
