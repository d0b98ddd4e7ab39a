package post

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nagisa-works/inkstone/internal/middleware"
	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/modules/autosave"
	"github.com/nagisa-works/inkstone/internal/modules/markdownrender"
	"github.com/nagisa-works/inkstone/internal/modules/version"
	"github.com/nagisa-works/inkstone/internal/pkg/pagination"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

// Handler exposes the post lifecycle over HTTP.
type Handler struct {
	svc      *Service
	versions *version.Service
	autosave *autosave.Manager
}

func NewHandler(svc *Service, versions *version.Service, autosaveMgr *autosave.Manager) *Handler {
	return &Handler{svc: svc, versions: versions, autosave: autosaveMgr}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalMW gin.HandlerFunc) {
	posts := rg.Group("/posts")

	posts.GET("", h.list)
	posts.GET("/all", authMW, h.listAll)
	posts.POST("", authMW, h.create)
	posts.DELETE("/bulk-delete", authMW, h.bulkDelete)

	posts.GET("/:slug", optionalMW, h.get)
	posts.PUT("/:slug", authMW, h.update)
	posts.DELETE("/:slug", authMW, h.delete)
	posts.PATCH("/:slug/status", authMW, h.updateStatus)
	posts.POST("/:slug/like", h.like)
	posts.GET("/:slug/html", h.html)

	posts.GET("/:slug/versions", authMW, h.listVersions)
	posts.POST("/:slug/versions", authMW, h.createVersion)
	posts.GET("/:slug/versions/:id", authMW, h.getVersion)
	posts.POST("/:slug/versions/:id/restore", authMW, h.restoreVersion)

	posts.POST("/:slug/autosave", authMW, h.autosaveSubmit)
	posts.GET("/:slug/autosave", authMW, h.autosaveState)

	rg.GET("/tags", h.tags)
	rg.GET("/categories", h.categories)
}

func (h *Handler) list(c *gin.Context) {
	posts, pag, err := h.svc.List(pagination.FromContext(c), listQueryFromContext(c), false)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, pag)
}

func (h *Handler) listAll(c *gin.Context) {
	posts, pag, err := h.svc.List(pagination.FromContext(c), listQueryFromContext(c), true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, pag)
}

func listQueryFromContext(c *gin.Context) ListQuery {
	var lq ListQuery
	if v := c.Query("category"); v != "" {
		lq.Category = &v
	}
	if v := c.Query("tag"); v != "" {
		lq.Tag = &v
	}
	return lq
}

func (h *Handler) get(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Param("slug"), middleware.IsAuthenticated(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}
	h.svc.IncrementRead(post.ID)
	response.OK(c, post)
}

func (h *Handler) create(c *gin.Context) {
	var dto PostInputDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "content is required")
		return
	}

	post, verr, err := h.svc.Create(dto.RawDocument())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if verr != nil {
		response.BadRequest(c, verr.Error())
		return
	}
	response.Created(c, post)
}

func (h *Handler) update(c *gin.Context) {
	var dto PostInputDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "content is required")
		return
	}

	slug := c.Param("slug")
	post, verr, err := h.svc.Update(slug, dto.RawDocument(), models.VersionTypeManual)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if verr != nil {
		response.BadRequest(c, verr.Error())
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}
	if post.Slug != slug && h.autosave != nil {
		h.autosave.Drop(slug)
	}
	response.OK(c, post)
}

func (h *Handler) delete(c *gin.Context) {
	slug := c.Param("slug")
	ok, err := h.svc.Delete(slug)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !ok {
		response.NotFound(c, "post not found")
		return
	}
	if h.autosave != nil {
		h.autosave.Drop(slug)
	}
	response.NoContent(c)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var dto UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "status is required")
		return
	}

	post, err := h.svc.UpdateStatus(c.Param("slug"), dto.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}
	response.OK(c, post)
}

func (h *Handler) bulkDelete(c *gin.Context) {
	var dto BulkDeleteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "slugs are required")
		return
	}

	result, err := h.svc.BulkDelete(dto.Slugs)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	for _, slug := range result.Deleted {
		if h.autosave != nil {
			h.autosave.Drop(slug)
		}
	}
	response.OK(c, result)
}

func (h *Handler) like(c *gin.Context) {
	post, err := h.svc.Like(c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": post.LikeCount})
}

func (h *Handler) html(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Param("slug"), false)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}

	html, err := markdownrender.Render(post.Content)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html, "title": post.Title})
}

func (h *Handler) listVersions(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Param("slug"), true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}

	list, err := h.versions.List(post.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, list)
}

func (h *Handler) createVersion(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Param("slug"), true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}

	var dto version.CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "content is required")
		return
	}

	v, err := h.versions.Create(post.ID, dto.Content, dto.Metadata, dto.Type, dto.Description)
	if err != nil {
		if errors.Is(err, version.ErrInvalidType) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, v)
}

func (h *Handler) getVersion(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Param("slug"), true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}

	v, err := h.versions.Get(post.ID, c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if v == nil {
		response.NotFound(c, "version not found")
		return
	}
	response.OK(c, v)
}

func (h *Handler) restoreVersion(c *gin.Context) {
	post, err := h.svc.RestoreVersion(c.Param("slug"), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post or version not found")
		return
	}
	response.OK(c, post)
}

func (h *Handler) autosaveSubmit(c *gin.Context) {
	if h.autosave == nil {
		response.NotFound(c, "autosave disabled")
		return
	}

	slug := c.Param("slug")
	post, err := h.svc.GetBySlug(slug, true)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c, "post not found")
		return
	}

	var dto PostInputDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "content is required")
		return
	}

	session := h.autosave.Session(slug)
	session.Submit(dto.RawDocument(), nil)
	c.JSON(http.StatusAccepted, session.State())
}

func (h *Handler) autosaveState(c *gin.Context) {
	if h.autosave == nil {
		response.NotFound(c, "autosave disabled")
		return
	}
	session := h.autosave.Peek(c.Param("slug"))
	if session == nil {
		c.JSON(http.StatusOK, autosave.State{})
		return
	}
	c.JSON(http.StatusOK, session.State())
}

func (h *Handler) tags(c *gin.Context) {
	tags, err := h.svc.Tags()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tags)
}

func (h *Handler) categories(c *gin.Context) {
	categories, err := h.svc.Categories()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, categories)
}
