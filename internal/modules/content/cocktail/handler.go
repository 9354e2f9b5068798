package cocktail

import (
	"github.com/cryptonic-cms/core/internal/models"
	"github.com/cryptonic-cms/core/internal/pkg/pagination"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles cocktail HTTP requests.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts cocktail routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	cocktails := rg.Group("/cocktails")

	cocktails.GET("", h.list)
	cocktails.GET("/:slug", h.getBySlug)
}

// list GET /cocktails
func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	cocktails, pag, err := h.svc.List(q)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	items, err := h.svc.ToResponses(cocktails, true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

// getBySlug GET /cocktails/:slug
func (h *Handler) getBySlug(c *gin.Context) {
	ct, err := h.svc.GetBySlug(c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if ct == nil {
		response.NotFoundMsg(c, "cocktail not found")
		return
	}

	items, err := h.svc.ToResponses([]models.CocktailModel{*ct}, true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items[0])
}
