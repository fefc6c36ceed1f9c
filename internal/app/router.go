package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"slimelist/internal/auth"
	"slimelist/internal/catalog"
	"slimelist/internal/progress"
	listsync "slimelist/internal/sync"
	"slimelist/internal/tracker"
)

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	_ = router.SetTrustedProxies(a.Config.Server.Proxies)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := a.Hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := a.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          "ready",
			"db":              string(a.DB.Dialect),
			"ws_users":        stats.Users,
			"ws_clients":      stats.Clients,
			"catalog_cooling": a.Gate.Remaining().String(),
		})
	})

	// catalog (public)
	catalog.NewHandler(a.Catalog, a.Logger.Named("http.catalog")).RegisterRoutes(router.Group("/anime"))

	auth.NewHandler(a.Users, a.Tokens).RegisterRoutes(router.Group("/auth"))

	protected := router.Group("/users")
	protected.Use(auth.Middleware(a.Tokens, a.Users))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
		})
	})
	protected.GET("/ws", listsync.WSHandler(a.Hub))

	tracker.NewHandler(a.Tracker, a.Catalog, a.Logger.Named("http.list")).RegisterRoutes(protected)
	progress.NewHandler(a.Progress).RegisterRoutes(protected)

	return router
}
