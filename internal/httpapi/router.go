package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bookden/internal/catalog"
	"bookden/internal/config"
	"bookden/internal/httpapi/handler"
	"bookden/internal/httpapi/middleware"
	"bookden/internal/httpapi/repository"
	"bookden/internal/httpapi/service"
	"bookden/internal/token"
)

// Deps holds everything the router needs that has its own lifecycle.
type Deps struct {
	DB       *gorm.DB
	Catalog  *catalog.Client
	Throttle *middleware.LoginThrottle
	Logger   *slog.Logger
}

// NewRouter wires repositories, services and handlers into a gin engine.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	userRepo := repository.NewUserRepository(deps.DB)
	bookRepo := repository.NewBookRepository(deps.DB)
	favoriteRepo := repository.NewFavoriteRepository(deps.DB)

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)
	authService := service.NewAuthService(userRepo, issuer, cfg)
	libraryService := service.NewLibraryService(favoriteRepo, bookRepo)

	authHandler := handler.NewAuthHandler(authService, cfg.SessionTokenTTL, cfg.RequestTimeout, deps.Logger)
	libraryHandler := handler.NewLibraryHandler(libraryService, cfg.RequestTimeout, deps.Logger)
	bookHandler := handler.NewBookHandler(deps.Catalog, deps.Logger)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := deps.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(r.Group("/auth"), deps.Throttle)
	libraryHandler.RegisterRoutes(r.Group("/library"), authService)
	bookHandler.RegisterRoutes(r.Group("/books"))

	return r
}
