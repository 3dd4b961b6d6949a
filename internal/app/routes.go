package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voxstory/core/internal/middleware"
	"github.com/voxstory/core/internal/modules/auth"
	"github.com/voxstory/core/internal/modules/speech"
	"github.com/voxstory/core/internal/modules/story"
	"github.com/voxstory/core/internal/modules/usage"
	pkgredis "github.com/voxstory/core/internal/pkg/redis"
	"github.com/voxstory/core/internal/pkg/response"
)

var processStart = time.Now()

func (a *App) registerRoutes(rc *pkgredis.Client) error {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "voxstory-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/voxstory/core",
	}

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth(db))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"timestamp": time.Since(processStart).Milliseconds()})
	})

	// Auth & account
	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)

	// Quota ledger
	usageSvc := usage.NewService(db)
	usage.NewHandler(usageSvc).RegisterRoutes(api, authMW)

	// Synthesis
	synth, err := speech.NewSynthesizer(a.cfg.Speech)
	if err != nil {
		return fmt.Errorf("speech provider: %w", err)
	}
	blobs, err := speech.NewBlobStore(a.cfg.Previews)
	if err != nil {
		return fmt.Errorf("preview store: %w", err)
	}
	speechSvc := speech.NewService(synth, usageSvc, blobs, a.logger)
	speech.NewHandler(speechSvc).RegisterRoutes(api, authMW)

	// Stories
	story.NewHandler(story.NewService(db)).RegisterRoutes(api, authMW)

	return nil
}
