package auth

import (
	"errors"

	"github.com/cryptonic-cms/core/internal/middleware"
	"github.com/cryptonic-cms/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")

	g.POST("/login", h.login)
	g.GET("/check_logged", middleware.OptionalAuth(h.svc.db), h.checkLogged)

	a := g.Group("", authMW)
	a.POST("/logout", h.logout)
	a.GET("/session", h.listSessions)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, u, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errUserNotFound) || errors.Is(err, errWrongPassword) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	response.OK(c, loginResponse{
		Token: token,
		User:  &userResponse{ID: u.ID, Username: u.Username, Name: u.Name},
	})
}

func (h *Handler) checkLogged(c *gin.Context) {
	isAuthenticated := middleware.IsAuthenticated(c)
	response.OK(c, gin.H{
		"logged":  isAuthenticated,
		"isGuest": !isAuthenticated,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.Sessions(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	current := middleware.CurrentSessionID(c)
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:        s.ID,
			IP:        s.IP,
			UA:        s.UA,
			ExpiresAt: s.ExpiresAt,
			Current:   s.ID == current,
		})
	}
	response.OK(c, out)
}
