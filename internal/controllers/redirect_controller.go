package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linklytics-be/internal/classifier"
	"linklytics-be/internal/entities"
	"linklytics-be/internal/service"
)

const recordTimeout = 10 * time.Second

type RedirectController struct {
	resolver    service.Resolver
	recorder    service.ClickRecorder
	geo         classifier.GeoResolver
	logger      *zap.Logger
	notFoundURL string

	// recorded is signalled after each detached recording attempt; nil
	// outside of tests
	recorded chan struct{}
}

// NewRedirectController creates the controller behind GET /:shortCode.
// notFoundURL is the landing page visitors of dead links are sent to.
func NewRedirectController(resolver service.Resolver, recorder service.ClickRecorder, geo classifier.GeoResolver, logger *zap.Logger, notFoundURL string) *RedirectController {
	if geo == nil {
		geo = classifier.NoopGeoResolver{}
	}
	return &RedirectController{
		resolver:    resolver,
		recorder:    recorder,
		geo:         geo,
		logger:      logger,
		notFoundURL: notFoundURL,
	}
}

// visitMetadata is captured from the request before the handler returns;
// gin may recycle the context once the response is written.
type visitMetadata struct {
	ip        string
	userAgent string
	referrer  string
}

// Redirect handles GET /:shortCode. The resolver runs synchronously and the
// response is issued immediately; click recording happens on a detached
// goroutine that is intentionally never awaited, so a slow or failing
// analytics write cannot delay or fail the redirect. Dead, expired and
// deactivated codes all land on a normal page instead of a bare error.
func (rc *RedirectController) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	// Activation state can change between two visits, so no client or
	// intermediary may reuse this decision; always a temporary redirect.
	setNoCacheHeaders(c)

	link, err := rc.resolver.Resolve(c.Request.Context(), shortCode)
	if err != nil {
		if !errors.Is(err, entities.ErrLinkNotFound) && !errors.Is(err, entities.ErrLinkGone) {
			rc.logger.Error("short code resolution failed", zap.String("short_code", shortCode), zap.Error(err))
		}
		c.Redirect(http.StatusFound, rc.notFoundURL+"?code="+url.QueryEscape(shortCode))
		return
	}

	meta := visitMetadata{
		ip:        c.ClientIP(),
		userAgent: c.Request.UserAgent(),
		referrer:  c.Request.Referer(),
	}
	go rc.recordVisit(link.ID, meta)

	c.Redirect(http.StatusFound, link.Destination)
}

// recordVisit is the detached recording path. Errors and panics are logged
// with the link id and swallowed; the redirect was already issued.
func (rc *RedirectController) recordVisit(linkID string, meta visitMetadata) {
	defer func() {
		if r := recover(); r != nil {
			rc.logger.Error("click recording panicked", zap.String("link_id", linkID), zap.Any("panic", r))
		}
		if rc.recorded != nil {
			rc.recorded <- struct{}{}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	input := service.ClickInput{
		IPAddress: meta.ip,
		Referrer:  meta.referrer,
		Device:    classifier.ClassifyDevice(meta.userAgent),
		Location:  rc.geo.Locate(meta.ip),
	}
	if _, err := rc.recorder.Record(ctx, linkID, input); err != nil {
		rc.logger.Warn("click recording failed", zap.String("link_id", linkID), zap.Error(err))
	}
}

// setNoCacheHeaders forbids caching of the redirect decision anywhere along
// the path, including HTTP/1.0 intermediaries.
func setNoCacheHeaders(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
