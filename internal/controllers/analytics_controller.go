package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linklytics-be/internal/entities"
	"linklytics-be/internal/middleware"
	"linklytics-be/internal/service"
)

type AnalyticsController struct {
	analytics service.AnalyticsService
}

func NewAnalyticsController(analytics service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

// GetSnapshot handles GET /api/v1/analytics?days=15&link=<shortCode> -
// owner-wide rollup, optionally scoped to one link
func (ac *AnalyticsController) GetSnapshot(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	days := service.DefaultWindowDays
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	snapshot, err := ac.analytics.Snapshot(c.Request.Context(), *ownerID, c.Query("link"), days)
	if err != nil {
		if errors.Is(err, entities.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// ListClicks handles GET /api/v1/link/:shortCode/clicks - paginated raw
// click events, filterable by date range (?from=&to=, RFC 3339)
func (ac *AnalyticsController) ListClicks(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	var from, to time.Time
	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date. Use ISO 8601 format"})
			return
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date. Use ISO 8601 format"})
			return
		}
		to = parsed
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	response, err := ac.analytics.ListClicks(c.Request.Context(), c.Param("shortCode"), ownerID, from, to, page, perPage)
	if err != nil {
		if errors.Is(err, entities.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
