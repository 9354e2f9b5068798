package app

import (
	"net/http"
	"time"

	"github.com/cryptonic-cms/core/internal/middleware"
	"github.com/cryptonic-cms/core/internal/modules/auth"
	"github.com/cryptonic-cms/core/internal/modules/content/cocktail"
	"github.com/cryptonic-cms/core/internal/modules/content/drink"
	"github.com/cryptonic-cms/core/internal/modules/crontask"
	"github.com/cryptonic-cms/core/internal/modules/editable"
	"github.com/cryptonic-cms/core/internal/modules/health"
	"github.com/cryptonic-cms/core/internal/modules/importer"
	"github.com/cryptonic-cms/core/internal/modules/media"
	pkgredis "github.com/cryptonic-cms/core/internal/pkg/redis"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/cryptonic-cms/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

var processStart = time.Now()

func (a *App) registerRoutes(rc *pkgredis.Client, taskSvc *taskqueue.Service) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	// Ingested image files.
	r.Static("/objects", a.cfg.Paths.Static)

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))

	appInfo := gin.H{
		"name":     "cryptonic-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/cryptonic-cms/core",
	}
	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"timestamp": time.Since(processStart).Milliseconds(),
		})
	})

	health.NewHandler(db, rc).RegisterRoutes(api, authMW)
	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)

	drink.NewHandler(drink.NewService(db)).RegisterRoutes(api, authMW)
	cocktail.NewHandler(cocktail.NewService(db)).RegisterRoutes(api, authMW)
	editable.NewHandler(editable.NewService(db)).RegisterRoutes(api, authMW)

	importSvc := importer.NewService(db, a.mediaSvc, a.logger.Named("importer"))
	importer.NewHandler(importSvc, a.cfg.Import, a.cfg.Paths.Data).RegisterRoutes(api, authMW)

	media.NewHandler(a.mediaSvc).RegisterRoutes(api, authMW)
	crontask.NewHandler(a.sched, taskSvc).RegisterRoutes(api, authMW)
}
