package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cryptonic-cms/core/internal/config"
	"github.com/cryptonic-cms/core/internal/database"
	"github.com/cryptonic-cms/core/internal/middleware"
	"github.com/cryptonic-cms/core/internal/modules/auth"
	"github.com/cryptonic-cms/core/internal/modules/media"
	pkgcron "github.com/cryptonic-cms/core/internal/pkg/cron"
	jwtpkg "github.com/cryptonic-cms/core/internal/pkg/jwt"
	"github.com/cryptonic-cms/core/internal/pkg/objstore"
	pkgredis "github.com/cryptonic-cms/core/internal/pkg/redis"
	"github.com/cryptonic-cms/core/internal/pkg/taskqueue"
	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rc       *pkgredis.Client
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
	mediaSvc *media.Service
}

// New initializes the application: config → DB → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if err := auth.EnsureDefaultUser(db, cfg.Auth.Username, cfg.Auth.Password); err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}

	var uploader *objstore.Uploader
	if cfg.S3.Enable {
		uploader, err = objstore.New(objstore.Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			CustomDomain:    cfg.S3.CustomDomain,
			Prefix:          cfg.S3.Prefix,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
	}

	taskSvc := taskqueue.NewService(rc)
	mediaSvc := media.NewService(db, media.Options{
		StaticDir: cfg.Paths.Static,
		Timeout:   cfg.Images.TimeoutSeconds,
		MaxBytes:  cfg.Images.MaxBytes,
	}, taskSvc, uploader, logger.Named("media"))

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := gincors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(gincors.New(corsConfig))

	ctx, cancel := context.WithCancel(context.Background())

	sched := pkgcron.New()
	registerCronJobs(sched, db, cfg, mediaSvc, logger)
	go sched.Start(ctx)

	app := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		rc:       rc,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
		mediaSvc: mediaSvc,
	}
	app.registerRoutes(rc, taskSvc)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines and connections.
func (a *App) Shutdown() {
	a.cancel()
	_ = a.rc.Close()
}
