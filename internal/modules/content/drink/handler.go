package drink

import (
	"github.com/cryptonic-cms/core/internal/models"
	"github.com/cryptonic-cms/core/internal/pkg/pagination"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles drink HTTP requests.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts drink routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	drinks := rg.Group("/drinks")

	drinks.GET("", h.list)
	drinks.GET("/:slug", h.getBySlug)
}

// list GET /drinks
func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	var lq ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	drinks, pag, err := h.svc.List(q, lq)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	items, err := h.svc.ToResponses(drinks, true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

// getBySlug GET /drinks/:slug
func (h *Handler) getBySlug(c *gin.Context) {
	d, err := h.svc.GetBySlug(c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if d == nil {
		response.NotFoundMsg(c, "drink not found")
		return
	}

	items, err := h.svc.ToResponses([]models.DrinkModel{*d}, true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items[0])
}
