package service

import (
	"context"

	"go.uber.org/zap"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/classifier"
	"linklytics-be/internal/entities"
	"linklytics-be/internal/repository"
)

// ClickInput is the classified metadata of one visit.
type ClickInput struct {
	IPAddress string
	Referrer  string
	Device    classifier.Device
	Location  classifier.Location
}

// ClickRecorder persists one analytics event per resolved visit. It runs on
// the detached side of the redirect and must never be load-bearing for it.
type ClickRecorder interface {
	Record(ctx context.Context, linkID string, input ClickInput) (*entities.Click, error)
}

type clickRecorder struct {
	links  repository.LinkRepository
	clicks repository.ClickRepository
	inv    linkInvalidator
	logger *zap.Logger
}

// NewClickRecorder creates a new click recorder
func NewClickRecorder(links repository.LinkRepository, clicks repository.ClickRepository, cacheClient cache.Cache, keys cache.Keys, logger *zap.Logger) ClickRecorder {
	return &clickRecorder{
		links:  links,
		clicks: clicks,
		inv:    linkInvalidator{cache: cacheClient, keys: keys, logger: logger},
		logger: logger,
	}
}

// Record confirms the link exists, writes the immutable event, bumps the
// link's counter with a single-statement increment, and sweeps every cache
// entry the new click could have staled. The link's own record is swept too:
// its click counter changed even though its activation state did not.
func (s *clickRecorder) Record(ctx context.Context, linkID string, input ClickInput) (*entities.Click, error) {
	link, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	click := &entities.Click{
		LinkID:    link.ID,
		OwnerID:   link.OwnerID, // copied from the link at record time
		Country:   input.Location.Country,
		City:      input.Location.City,
		Latitude:  input.Location.Latitude,
		Longitude: input.Location.Longitude,
		Device:    input.Device.Type,
		OS:        input.Device.OS,
		Browser:   input.Device.Browser,
		IPAddress: input.IPAddress,
		Referrer:  input.Referrer,
	}

	stored, err := s.clicks.Insert(ctx, click)
	if err != nil {
		return nil, err
	}

	if err := s.links.IncrementClicks(ctx, link.ID); err != nil {
		// The event row is already persisted; don't fail the recording
		// over the denormalized counter.
		s.logger.Warn("failed to increment click counter", zap.String("link_id", link.ID), zap.Error(err))
	}

	s.inv.invalidateLink(ctx, link)
	return stored, nil
}
