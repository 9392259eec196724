package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/classifier"
	"linklytics-be/internal/config"
	"linklytics-be/internal/controllers"
	"linklytics-be/internal/database"
	"linklytics-be/internal/middleware"
	"linklytics-be/internal/repository"
	"linklytics-be/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := database.NewConnection(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close() // Close connection when program exits

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize the cache layer. Redis being down is not fatal: the service
	// degrades to an in-process cache and stays correct, only slower.
	var cacheClient cache.Cache
	cacheClient, err = cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-process cache", zap.Error(err))
		cacheClient = cache.NewMemoryCache()
	} else {
		logger.Info("Connected to Redis cache")
	}

	keys := cache.NewKeys(cfg.CachePrefix)
	ttl := cache.TTL{
		Short:  cfg.CacheTTLShort,
		Medium: cfg.CacheTTLMedium,
		Long:   cfg.CacheTTLLong,
	}

	// Initialize repositories
	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)

	// Initialize services
	linkService := service.NewLinkService(linkRepo, cacheClient, keys, ttl, service.UnlimitedQuota{}, logger, cfg.BaseURL)
	resolver := service.NewResolver(linkRepo, cacheClient, keys, ttl, logger)
	recorder := service.NewClickRecorder(linkRepo, clickRepo, cacheClient, keys, logger)
	analyticsService := service.NewAnalyticsService(linkRepo, clickRepo, cacheClient, keys, ttl, logger)

	// Initialize controllers
	redirectController := controllers.NewRedirectController(resolver, recorder, classifier.NoopGeoResolver{}, logger, cfg.NotFoundURL)
	linkController := controllers.NewLinkController(linkService)
	analyticsController := controllers.NewAnalyticsController(analyticsService)
	qrcodeController := controllers.NewQRCodeController(resolver, cfg.BaseURL)

	// Initialize rate limiters
	apiRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	redirectRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRedirectRPS), cfg.RateLimitRedirectBurst)

	// Create a Gin router
	router := gin.Default()

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Redirect entry point with its own lenient rate limiting tier
	router.GET("/:shortCode", redirectRateLimiter.LimitMiddleware(), redirectController.Redirect)

	// API v1 routes group with general rate limiting and owner identity
	api := router.Group("/api/v1")
	api.Use(apiRateLimiter.LimitMiddleware())
	api.Use(middleware.OwnerIdentity(cfg.OwnerTokenSecret))
	{
		// Anonymous callers may shorten; everything else needs an owner
		api.POST("/shorten", linkController.CreateLink)

		api.GET("/links", linkController.ListLinks)
		api.GET("/link/:shortCode", linkController.GetLink)
		api.PATCH("/link/:shortCode", linkController.UpdateLink)
		api.DELETE("/link/:shortCode", linkController.DeleteLink)

		api.GET("/link/:shortCode/clicks", analyticsController.ListClicks)
		api.GET("/analytics", analyticsController.GetSnapshot)
		api.GET("/summary", linkController.Summary)

		// QR Code generation
		api.GET("/qrcode/:shortCode", qrcodeController.GenerateQRCode)
	}

	logger.Info("Server starting", zap.String("addr", cfg.ListenAddr))
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
