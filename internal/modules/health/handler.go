package health

import (
	"time"

	redisc "github.com/cryptonic-cms/core/internal/pkg/redis"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler reports liveness of the process and its backing stores.
type Handler struct {
	db      *gorm.DB
	rc      *redisc.Client
	started time.Time
}

func NewHandler(db *gorm.DB, rc *redisc.Client) *Handler {
	return &Handler{db: db, rc: rc, started: time.Now()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/health", h.check)
}

// check GET /health
func (h *Handler) check(c *gin.Context) {
	dbStatus := "up"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "down"
	}

	redisStatus := "up"
	if h.rc == nil || h.rc.Ping(c.Request.Context()) != nil {
		redisStatus = "down"
	}

	response.OK(c, gin.H{
		"database": dbStatus,
		"redis":    redisStatus,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}
