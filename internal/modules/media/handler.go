package media

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/pkg/pagination"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

// Handler exposes media upload, listing, and deletion.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/media")
	g.POST("/upload", authMW, h.upload)
	g.GET("", authMW, h.list)
	g.DELETE("/:id", authMW, h.delete)
}

// uploadResult is the response shape for both upload flavors.
type uploadResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type embedDTO struct {
	URL string `json:"url" binding:"required"`
}

// upload accepts either a multipart file (field "file", optional
// "post_slug" form value) or a JSON body {url} registering an
// external embed.
func (h *Handler) upload(c *gin.Context) {
	if file, err := c.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			response.InternalError(c, err)
			return
		}
		defer src.Close()

		m, err := h.svc.SaveUpload(
			c.PostForm("post_slug"),
			file.Filename,
			file.Header.Get("Content-Type"),
			src,
		)
		if err != nil {
			if errors.Is(err, ErrUnsafeName) {
				response.BadRequest(c, err.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
		response.Created(c, toResult(m))
		return
	}

	var dto embedDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "expected a multipart file or {url}")
		return
	}

	m, err := h.svc.RegisterExternal(dto.URL)
	if err != nil {
		if errors.Is(err, ErrHostNotAllowed) {
			response.BadRequest(c, err.Error())
			return
		}
		response.BadRequest(c, "invalid embed url")
		return
	}
	response.Created(c, toResult(m))
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.svc.Delete(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !ok {
		response.NotFound(c, "media not found")
		return
	}
	response.NoContent(c)
}

func toResult(m *models.MediaModel) uploadResult {
	return uploadResult{
		ID:        m.ID,
		Name:      m.Name,
		URL:       m.URL,
		Type:      m.MimeType,
		Size:      m.Size,
		CreatedAt: m.CreatedAt,
	}
}
