package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nagisa-works/inkstone/internal/middleware"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth endpoints. loginLimitMW rate-limits
// the login endpoint; optionalMW resolves the session for /session.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, loginLimitMW, optionalMW gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", loginLimitMW, h.login)
	a.POST("/logout", h.logout)
	a.POST("/register", h.register)
	a.GET("/session", optionalMW, h.session)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	_, token, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	setAuthCookie(c, token, int(TokenTTL.Seconds()))
	response.OK(c, LoginResponse{Success: true, Message: "logged in"})
}

func (h *Handler) logout(c *gin.Context) {
	setAuthCookie(c, "", -1)
	response.OK(c, LoginResponse{Success: true, Message: "logged out"})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	u, err := h.svc.Register(dto.Username, dto.Password, dto.Name)
	if err != nil {
		if errors.Is(err, ErrOwnerExists) {
			response.Forbidden(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, u)
}

func (h *Handler) session(c *gin.Context) {
	u, err := h.svc.Current(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, token, maxAge, "/", "", false, true)
}
