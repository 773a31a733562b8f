package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/api/handlers"
	"github.com/pokepocketdata/ppdd/internal/cache"
	"github.com/pokepocketdata/ppdd/internal/config"
	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/middleware"
	"github.com/pokepocketdata/ppdd/internal/services"
)

// Version is reported by the root endpoint
var Version = "dev"

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	Config *config.Config
	Store  *database.Store
	Auth   *services.AuthService
	Stats  cache.StatsCache
	Log    *zap.Logger
}

// NewRouter builds the gin engine with every route mounted
func NewRouter(d Dependencies) *gin.Engine {
	cfg := d.Config
	log := d.Log

	images := services.NewImageStorageService(cfg.CardImagesDir, log.Named("images"))
	cardService := services.NewCardService(d.Store, images, log)
	deckService := services.NewDeckService(d.Store, log)
	gameService := services.NewGameService(d.Store, d.Stats, log)

	cardHandler := handlers.NewCardHandler(cardService, log.Named("api"))
	deckHandler := handlers.NewDeckHandler(deckService, log.Named("api"))
	gameHandler := handlers.NewGameHandler(gameService, log.Named("api"))
	authHandler := handlers.NewAuthHandler(d.Auth, log.Named("api"))
	adminHandler := handlers.NewAdminHandler(d.Store, log.Named("admin"))
	healthHandler := handlers.NewHealthHandler(d.Store, Version, log.Named("health"))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.Named("http")))
	router.Use(metrics.HTTPMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static(services.CardImagesURLPrefix, images.StorageDir())

	bearer := middleware.BearerAuth(d.Auth, handlers.AbortWithError(log.Named("auth")))
	adminKey := middleware.AdminKeyAuth(cfg.AdminKey)
	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.GET("/status", middleware.AuthStatus(cfg.AdminKey))
			authGroup.POST("/google/callback", middleware.RateLimit(limiter), authHandler.GoogleCallback)
			authGroup.GET("/me", bearer, authHandler.Me)
			authGroup.POST("/admin/verify", bearer, middleware.VerifyAdminKey(cfg.AdminKey))
		}

		cards := api.Group("/cards", bearer)
		{
			cards.GET("/", cardHandler.ListCards)
			cards.GET("/sets", cardHandler.ListSets)
			cards.GET("/:id", cardHandler.GetCard)
			cards.POST("/pokemon", adminKey, cardHandler.CreatePokemon)
			cards.POST("/trainer", adminKey, cardHandler.CreateTrainer)
			cards.PATCH("/:id", adminKey, cardHandler.UpdateCard)
			cards.POST("/:id/image", adminKey, cardHandler.UploadImage)
		}

		decks := api.Group("/decks", bearer)
		{
			decks.POST("/", deckHandler.CreateDeck)
			decks.GET("/", deckHandler.ListDecks)
			decks.GET("/:id", deckHandler.GetDeck)
			decks.PUT("/:id", deckHandler.UpdateDeck)
		}

		games := api.Group("/games", bearer)
		{
			games.POST("/", gameHandler.RecordGame)
			games.GET("/", gameHandler.ListGames)
			games.GET("/statistics/:player_id", gameHandler.GetStatistics)
		}

		admin := api.Group("/admin", bearer, adminKey)
		{
			admin.POST("/metrics/refresh", adminHandler.RefreshMetrics)
			admin.GET("/summary", adminHandler.CatalogSummary)
		}
	}

	return router
}
