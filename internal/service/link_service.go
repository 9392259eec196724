package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/entities"
	"linklytics-be/internal/models"
	"linklytics-be/internal/repository"
)

// LinkService defines the interface for short-link lifecycle logic
type LinkService interface {
	CreateLink(ctx context.Context, req *models.CreateLinkRequest, ownerID *string) (*models.LinkResponse, error)
	GetLink(ctx context.Context, shortCode string, ownerID *string) (*models.LinkResponse, error)
	ListLinks(ctx context.Context, ownerID string) ([]*models.LinkResponse, error)
	UpdateLink(ctx context.Context, shortCode string, ownerID *string, upd repository.LinkUpdate) (*models.LinkResponse, error)
	DeleteLink(ctx context.Context, shortCode string, ownerID *string) error
	Summary(ctx context.Context, ownerID string) (*repository.OwnerSummary, error)
}

type linkService struct {
	repo    repository.LinkRepository
	cache   cache.Cache
	keys    cache.Keys
	ttl     cache.TTL
	quota   QuotaChecker
	inv     linkInvalidator
	logger  *zap.Logger
	baseURL string
}

// NewLinkService creates a new link service. cacheClient may be nil.
func NewLinkService(repo repository.LinkRepository, cacheClient cache.Cache, keys cache.Keys, ttl cache.TTL, quota QuotaChecker, logger *zap.Logger, baseURL string) LinkService {
	if quota == nil {
		quota = UnlimitedQuota{}
	}
	return &linkService{
		repo:    repo,
		cache:   cacheClient,
		keys:    keys,
		ttl:     ttl,
		quota:   quota,
		inv:     linkInvalidator{cache: cacheClient, keys: keys, logger: logger},
		logger:  logger,
		baseURL: baseURL,
	}
}

// Reserved short codes that cannot be used as aliases
var reservedCodes = map[string]bool{
	"api":       true,
	"www":       true,
	"health":    true,
	"shorten":   true,
	"links":     true,
	"link":      true,
	"clicks":    true,
	"stats":     true,
	"summary":   true,
	"analytics": true,
	"qrcode":    true,
	"admin":     true,
	"not-found": true,
}

var shortCodeFormat = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// validateCustomShortCode validates a caller-chosen alias
func validateCustomShortCode(shortCode string) error {
	if len(shortCode) < 3 {
		return fmt.Errorf("short code must be at least 3 characters long")
	}
	if len(shortCode) > 50 {
		return fmt.Errorf("short code must be at most 50 characters long")
	}
	if !shortCodeFormat.MatchString(shortCode) {
		return fmt.Errorf("short code can only contain letters, numbers, hyphens, and underscores")
	}
	if reservedCodes[strings.ToLower(shortCode)] {
		return fmt.Errorf("short code '%s' is reserved and cannot be used", shortCode)
	}
	return nil
}

// generateShortCode generates a random 8-character short code
func generateShortCode() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)[:8], nil
}

// checkAvailability checks whether a short code is free, probing the cache
// before the store. Probe entries are short-lived on the "available" side to
// keep the race window small, longer on the "taken" side.
func (s *linkService) checkAvailability(ctx context.Context, shortCode string) (bool, error) {
	probeKey := s.keys.LinkByCode(shortCode) + ":exists"

	if s.cache != nil {
		val, err := s.cache.Get(ctx, probeKey)
		if err == nil && val == "taken" {
			return false, nil
		}
	}

	_, err := s.repo.FindByCode(ctx, shortCode)
	if errors.Is(err, entities.ErrLinkNotFound) {
		if s.cache != nil {
			if err := s.cache.Set(ctx, probeKey, "available", s.ttl.Short); err != nil {
				s.logger.Warn("availability cache write failed", zap.Error(err))
			}
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, probeKey, "taken", s.ttl.Long); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return false, nil
}

// CreateLink creates a new short link
func (s *linkService) CreateLink(ctx context.Context, req *models.CreateLinkRequest, ownerID *string) (*models.LinkResponse, error) {
	// Allow a 2-second buffer to account for network latency and processing time
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now().Add(-2*time.Second)) {
		return nil, fmt.Errorf("expiration time cannot be in the past")
	}

	if ownerID != nil {
		allowed, err := s.quota.Allow(ctx, *ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check link quota: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("link quota exceeded for this plan")
		}
	}

	var shortCode string
	if req.ShortCode != nil && *req.ShortCode != "" {
		customCode := strings.TrimSpace(*req.ShortCode)
		if err := validateCustomShortCode(customCode); err != nil {
			return nil, err
		}
		available, err := s.checkAvailability(ctx, customCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check short code availability: %w", err)
		}
		if !available {
			return nil, entities.ErrCodeTaken
		}
		shortCode = customCode
	} else {
		// Generated codes are retried on collision; the unique index is the
		// real arbiter
		var err error
		for attempt := 0; ; attempt++ {
			shortCode, err = generateShortCode()
			if err != nil {
				return nil, err
			}
			available, err := s.checkAvailability(ctx, shortCode)
			if err != nil {
				return nil, fmt.Errorf("failed to check short code availability: %w", err)
			}
			if available {
				break
			}
			if attempt == 9 {
				return nil, fmt.Errorf("failed to generate unique short code after 10 attempts")
			}
		}
	}

	link, err := s.repo.Create(ctx, shortCode, req.URL, ownerID, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, entities.ErrCodeTaken) && s.cache != nil {
			probeKey := s.keys.LinkByCode(shortCode) + ":exists"
			if err := s.cache.Set(ctx, probeKey, "taken", s.ttl.Long); err != nil {
				s.logger.Warn("availability cache write failed", zap.Error(err))
			}
		}
		return nil, err
	}

	if s.cache != nil {
		// Prime the redirect path and mark the code taken
		if err := s.cache.SetJSON(ctx, s.keys.LinkByCode(link.ShortCode), link, s.ttl.Medium); err != nil {
			s.logger.Warn("link cache prime failed", zap.String("short_code", link.ShortCode), zap.Error(err))
		}
		probeKey := s.keys.LinkByCode(shortCode) + ":exists"
		if err := s.cache.Set(ctx, probeKey, "taken", s.ttl.Long); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	if ownerID != nil {
		// New link changes the owner's list and link totals
		s.inv.invalidateOwner(ctx, *ownerID)
	}

	return s.toResponse(link), nil
}

// GetLink retrieves one link, scoped to its owner when ownerID is set
func (s *linkService) GetLink(ctx context.Context, shortCode string, ownerID *string) (*models.LinkResponse, error) {
	link, err := s.repo.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if ownerID != nil && (link.OwnerID == nil || *link.OwnerID != *ownerID) {
		return nil, entities.ErrLinkNotFound
	}
	return s.toResponse(link), nil
}

// ListLinks retrieves all links for an owner, newest first, through the
// owner's list cache.
func (s *linkService) ListLinks(ctx context.Context, ownerID string) ([]*models.LinkResponse, error) {
	return cache.GetOrCompute(ctx, s.cache, s.logger, s.keys.OwnerLinks(ownerID), s.ttl.Long, func() ([]*models.LinkResponse, error) {
		links, err := s.repo.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return lo.Map(links, func(link *entities.Link, _ int) *models.LinkResponse {
			return s.toResponse(link)
		}), nil
	})
}

// UpdateLink mutates destination, activation and/or expiry, then sweeps the
// link's cache entries so the change is visible immediately.
func (s *linkService) UpdateLink(ctx context.Context, shortCode string, ownerID *string, upd repository.LinkUpdate) (*models.LinkResponse, error) {
	if upd.SetExpiry && upd.ExpiresAt != nil && upd.ExpiresAt.Before(time.Now().Add(-2*time.Second)) {
		return nil, fmt.Errorf("expiration time cannot be in the past")
	}

	link, err := s.repo.Update(ctx, shortCode, ownerID, upd)
	if err != nil {
		return nil, err
	}

	s.inv.invalidateLink(ctx, link)
	return s.toResponse(link), nil
}

// DeleteLink removes a link and, via the datastore cascade, all of its
// click events, then invalidates everything derived from either.
func (s *linkService) DeleteLink(ctx context.Context, shortCode string, ownerID *string) error {
	link, err := s.repo.Delete(ctx, shortCode, ownerID)
	if err != nil {
		return err
	}

	s.inv.invalidateLink(ctx, link)
	if s.cache != nil {
		probeKey := s.keys.LinkByCode(shortCode) + ":exists"
		if err := s.cache.Delete(ctx, probeKey); err != nil {
			s.logger.Warn("availability cache evict failed", zap.Error(err))
		}
	}
	return nil
}

// Summary returns the owner's link/click totals through the list cache tier
func (s *linkService) Summary(ctx context.Context, ownerID string) (*repository.OwnerSummary, error) {
	key := s.keys.OwnerLinks(ownerID) + ":summary"
	return cache.GetOrCompute(ctx, s.cache, s.logger, key, s.ttl.Long, func() (*repository.OwnerSummary, error) {
		return s.repo.Summary(ctx, ownerID)
	})
}

func (s *linkService) toResponse(link *entities.Link) *models.LinkResponse {
	return &models.LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		Destination: link.Destination,
		ShortURL:    fmt.Sprintf("%s/%s", s.baseURL, link.ShortCode),
		QRCodeURL:   fmt.Sprintf("%s/api/v1/qrcode/%s", s.baseURL, link.ShortCode),
		IsActive:    link.IsActive,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
		ExpiresAt:   link.ExpiresAt,
	}
}
