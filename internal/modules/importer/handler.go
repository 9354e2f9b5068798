package importer

import (
	"path/filepath"

	"github.com/cryptonic-cms/core/internal/config"
	"github.com/cryptonic-cms/core/internal/pkg/pagination"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles import HTTP requests.
type Handler struct {
	svc *Service
	cfg config.ImportConfig
	dir string // data directory for the configured documents
}

func NewHandler(svc *Service, cfg config.ImportConfig, dataDir string) *Handler {
	return &Handler{svc: svc, cfg: cfg, dir: dataDir}
}

// RegisterRoutes mounts import routes onto the given router group. Imports
// rewrite content, so the whole group is auth-gated.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/import", authMW)

	g.POST("", h.run)
	g.GET("/runs", h.listRuns)
}

// run POST /import
func (h *Handler) run(c *gin.Context) {
	var dto ImportRequestDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	opts := Options{
		UpdateExisting: h.cfg.UpdateExisting,
		DownloadImages: h.cfg.DownloadImages,
	}
	if dto.UpdateExisting != nil {
		opts.UpdateExisting = *dto.UpdateExisting
	}
	if dto.DownloadImages != nil {
		opts.DownloadImages = *dto.DownloadImages
	}

	var report *Report
	var err error
	if dto.Drinks != nil || dto.Cocktails != nil {
		report, err = h.svc.Run(c.Request.Context(), dto.Drinks, dto.Cocktails, opts)
	} else {
		report, err = h.svc.RunFromFiles(c.Request.Context(),
			joinDataPath(h.dir, h.cfg.DrinksFile),
			joinDataPath(h.dir, h.cfg.CocktailsFile),
			opts)
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}

func joinDataPath(dir, file string) string {
	if file == "" {
		return ""
	}
	return filepath.Join(dir, file)
}

// listRuns GET /import/runs
func (h *Handler) listRuns(c *gin.Context) {
	runs, pag, err := h.svc.Runs(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, runs, pag)
}
