package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nagisa-works/inkstone/internal/middleware"
	"github.com/nagisa-works/inkstone/internal/modules/auth"
	"github.com/nagisa-works/inkstone/internal/modules/autosave"
	"github.com/nagisa-works/inkstone/internal/modules/editor"
	"github.com/nagisa-works/inkstone/internal/modules/media"
	"github.com/nagisa-works/inkstone/internal/modules/post"
	"github.com/nagisa-works/inkstone/internal/modules/version"
	"github.com/nagisa-works/inkstone/internal/pkg/response"
)

const (
	globalRateLimit = int64(600)
	loginRateLimit  = int64(5)
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth()
	optionalMW := middleware.OptionalAuth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "not found")
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	// uploaded media is served straight off disk
	r.Static("/media", a.cfg.Paths.Media)

	api := r.Group("/api")
	api.Use(optionalMW)
	api.Use(middleware.RateLimit(a.rdb, "global", globalRateLimit, time.Minute, true))
	api.Use(middleware.Idempotence(a.rdb))

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"jobs":   a.sched.List(),
		})
	})

	// services
	versionSvc := version.NewService(a.db, a.logger, a.cfg.Versions.RetentionLimit)
	postSvc := post.NewService(a.db, a.logger, versionSvc)
	mediaSvc := media.NewService(a.db, a.logger, a.cfg.Paths.Media, a.cfg.Media.AllowedEmbedHosts)
	authSvc := auth.NewService(a.db)
	postSvc.SetMediaStore(mediaSvc)

	a.sessions = autosave.NewManager(
		a.cfg.AutosaveDebounce(),
		a.cfg.AutosaveBackground(),
		func(slug string) autosave.SaveFunc {
			return post.NewAutosaveSaver(postSvc, a.sessions, slug)
		},
	)

	loginLimitMW := middleware.RateLimit(a.rdb, "login", loginRateLimit, time.Minute, false)

	auth.NewHandler(authSvc).RegisterRoutes(api, loginLimitMW, optionalMW)
	post.NewHandler(postSvc, versionSvc, a.sessions).RegisterRoutes(api, authMW, optionalMW)
	media.NewHandler(mediaSvc).RegisterRoutes(api, authMW)
	editor.NewHandler().RegisterRoutes(api, authMW)

	registerCronJobs(a.sched, mediaSvc, a.logger)
}
