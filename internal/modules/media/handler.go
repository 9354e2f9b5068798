package media

import (
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles image housekeeping HTTP requests.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts image routes onto the given router group. All of
// them mutate or expose operational state, so everything is auth-gated.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/images", authMW)

	g.GET("/pending", h.pending)
	g.GET("/sweep", h.lastSweep)
	g.POST("/process", h.process)
	g.POST("/verify", h.verify)
}

// pending GET /images/pending
func (h *Handler) pending(c *gin.Context) {
	images, err := h.svc.PendingImages()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if images == nil {
		images = []PendingImage{}
	}
	response.OK(c, images)
}

// lastSweep GET /images/sweep
func (h *Handler) lastSweep(c *gin.Context) {
	sweep, err := h.svc.LastSweep()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sweep == nil {
		response.NotFoundMsg(c, "no sweep has run yet")
		return
	}
	response.OK(c, sweep)
}

// process POST /images/process
func (h *Handler) process(c *gin.Context) {
	fetched, failed, err := h.svc.ProcessPending(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"fetched": fetched, "failed": failed})
}

// verify POST /images/verify
func (h *Handler) verify(c *gin.Context) {
	report, err := h.svc.VerifyIntegrity(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}
