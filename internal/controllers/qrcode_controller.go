package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"linklytics-be/internal/service"
)

type QRCodeController struct {
	resolver service.Resolver
	baseURL  string
}

// NewQRCodeController creates the controller rendering the derived QR URL
// of a short link. baseURL is the public host short links are served from.
func NewQRCodeController(resolver service.Resolver, baseURL string) *QRCodeController {
	return &QRCodeController{
		resolver: resolver,
		baseURL:  baseURL,
	}
}

// GenerateQRCode handles GET /api/v1/qrcode/:shortCode - renders the short
// URL as a PNG. Only resolvable links get a code; a dead alias is a 404.
func (qc *QRCodeController) GenerateQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")
	if shortCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Short code is required"})
		return
	}

	if _, err := qc.resolver.Resolve(c.Request.Context(), shortCode); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found or expired"})
		return
	}

	size := 256
	if sizeStr := c.Query("size"); sizeStr != "" {
		if parsed, err := strconv.Atoi(sizeStr); err == nil && parsed >= 64 && parsed <= 1024 {
			size = parsed
		}
	}

	shortURL := qc.baseURL + "/" + shortCode

	qrCode, err := qrcode.New(shortURL, qrcode.Medium)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	pngData, err := qrCode.PNG(size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code image"})
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", "inline; filename=qrcode.png")
	c.Data(http.StatusOK, "image/png", pngData)
}
