package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-portal/internal/media"
	"property-portal/internal/middleware"
	"property-portal/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Listings       *service.ListingService
	Metrics        *service.MetricsService
	Auth           *middleware.Auth
	Files          media.Opener
	MaxUploadBytes int64
	Logger         *slog.Logger
	// Ping backs /healthz; nil means always healthy.
	Ping func(context.Context) error
}

// NewRouter builds the gin engine. Public routes accept anonymous callers,
// protected routes require a token.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	public := api.Group("", d.Auth.Optional())
	protected := api.Group("", d.Auth.Required())

	(&ListingHandler{Service: d.Listings}).RegisterRoutes(public, protected)
	(&MediaHandler{Service: d.Listings, Files: d.Files, MaxBytes: d.MaxUploadBytes}).RegisterRoutes(public, protected)
	(&MetricsHandler{Service: d.Metrics}).RegisterRoutes(protected)
	return r
}
