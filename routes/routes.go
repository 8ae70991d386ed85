package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"talkthreads/config"
	"talkthreads/handlers"
	"talkthreads/middleware"
	"talkthreads/websocket"
)

func SetupRouter(cfg config.Config, h *handlers.Handler, users middleware.UserFinder, hub *websocket.Manager) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Talk threads server running perfectly")
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Moderation routes need an admin token when ENFORCE_ADMIN is set.
	admin := router.Group("/")
	if cfg.EnforceAdmin {
		admin.Use(middleware.JWTAuth(cfg.JWTSecret), middleware.RequireAdmin(users))
	}

	h.Register(router, admin)

	// Live feed
	if hub != nil {
		router.GET("/ws", gin.WrapF(websocket.Handler(hub)))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}
