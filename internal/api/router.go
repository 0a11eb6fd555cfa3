package api

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assemblage/asm/internal/app"
	"github.com/assemblage/asm/internal/handlers"
	"github.com/assemblage/asm/internal/middleware"
	"github.com/assemblage/asm/internal/services"
	"github.com/assemblage/asm/web"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(cfg *app.Config, registration *services.RegistrationService) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if registration == nil {
		return nil, fmt.Errorf("registration service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	if cfg.Monitoring.Prometheus.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.RateLimit(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	accountHandler, err := handlers.NewAccountHandler(registration)
	if err != nil {
		return nil, err
	}

	r.POST("/create_account", accountHandler.Create)
	r.POST("/verify_code", accountHandler.Verify)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// Landing page
	staticFS, err := web.FS()
	if err != nil {
		return nil, fmt.Errorf("load static files: %w", err)
	}
	r.GET("/", func(c *gin.Context) {
		serveIndex(c, staticFS)
	})

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func serveIndex(c *gin.Context, staticFS fs.FS) {
	data, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "landing page unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}
