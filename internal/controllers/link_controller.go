package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linklytics-be/internal/entities"
	"linklytics-be/internal/middleware"
	"linklytics-be/internal/models"
	"linklytics-be/internal/repository"
	"linklytics-be/internal/service"
)

type LinkController struct {
	linkService service.LinkService
}

func NewLinkController(linkService service.LinkService) *LinkController {
	return &LinkController{linkService: linkService}
}

// CreateLink handles POST /api/v1/shorten. Anonymous callers may shorten
// too; the link is just ownerless.
func (lc *LinkController) CreateLink(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	// Ensure expiresAt is in UTC
	if req.ExpiresAt != nil {
		utcTime := req.ExpiresAt.UTC()
		req.ExpiresAt = &utcTime
	}

	ownerID := middleware.OwnerID(c)

	response, err := lc.linkService.CreateLink(c.Request.Context(), &req, ownerID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, entities.ErrCodeTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetLink handles GET /api/v1/link/:shortCode
func (lc *LinkController) GetLink(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	response, err := lc.linkService.GetLink(c.Request.Context(), c.Param("shortCode"), ownerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListLinks handles GET /api/v1/links
func (lc *LinkController) ListLinks(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	links, err := lc.linkService.ListLinks(c.Request.Context(), *ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if links == nil {
		links = []*models.LinkResponse{}
	}

	c.JSON(http.StatusOK, links)
}

// UpdateLink handles PATCH /api/v1/link/:shortCode - destination, active
// flag and/or expiry
func (lc *LinkController) UpdateLink(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	var req models.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	upd := repository.LinkUpdate{
		Destination: req.Destination,
		IsActive:    req.IsActive,
	}
	if req.ExpiresAt != nil {
		upd.SetExpiry = true
		if *req.ExpiresAt != "" {
			parsed, err := time.Parse(time.RFC3339, *req.ExpiresAt)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid date format. Use ISO 8601 format (e.g., 2024-12-31T23:59:59Z)",
				})
				return
			}
			utcTime := parsed.UTC()
			upd.ExpiresAt = &utcTime
		}
	}

	response, err := lc.linkService.UpdateLink(c.Request.Context(), c.Param("shortCode"), ownerID, upd)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, entities.ErrLinkNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteLink handles DELETE /api/v1/link/:shortCode
func (lc *LinkController) DeleteLink(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	if err := lc.linkService.DeleteLink(c.Request.Context(), c.Param("shortCode"), ownerID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// Summary handles GET /api/v1/summary - owner link/click totals
func (lc *LinkController) Summary(c *gin.Context) {
	ownerID := middleware.OwnerID(c)
	if ownerID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Owner identity required"})
		return
	}

	summary, err := lc.linkService.Summary(c.Request.Context(), *ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
