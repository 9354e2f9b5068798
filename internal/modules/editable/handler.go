package editable

import (
	"errors"
	"net/http"

	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles editable-content HTTP requests.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts editable-content routes onto the given router group.
// Reads are public; writes require authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/editable-content")

	g.GET("/get", h.get)
	g.POST("/save", authMW, h.save)
}

// get GET /editable-content/get?context=...&context_id=...
//
// Always answers 200 for a valid address; the exists flag tells callers apart
// from an address nothing was ever saved under.
func (h *Handler) get(c *gin.Context) {
	entry, err := h.svc.Get(c.Query("context"), c.Query("context_id"))
	if err != nil {
		if errors.Is(err, errInvalidAddress) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if entry == nil {
		response.OK(c, getResponse{Exists: false})
		return
	}
	body := toEntryResponse(entry)
	response.OK(c, getResponse{Exists: true, entryResponse: &body})
}

// save POST /editable-content/save
func (h *Handler) save(c *gin.Context) {
	var dto SaveDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Save(dto)
	if err != nil {
		if errors.Is(err, errInvalidAddress) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	body := gin.H{"status": result.Status}
	if result.Entry != nil {
		body["entry"] = toEntryResponse(result.Entry)
	}
	if result.Status == StatusConflict {
		// the caller needs the server's current row to rebase its edit
		body["ok"] = 0
		body["code"] = http.StatusConflict
		body["message"] = "stored content changed since your version"
		c.AbortWithStatusJSON(http.StatusConflict, body)
		return
	}
	response.OK(c, body)
}
