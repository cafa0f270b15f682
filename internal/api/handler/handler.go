// Package handler serves the resource views of the dashboard as JSON view models.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/cache"
	"github.com/minecom/minedash/internal/config"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/gravatar"
	"github.com/minecom/minedash/internal/notify/email"
	"github.com/minecom/minedash/internal/scheduler"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
)

type Handler struct {
	cfg       *config.Config
	client    *strapi.Client
	db        database.DB
	views     *cache.ViewCache
	email     *email.NotificationService
	avatars   *gravatar.Resolver
	scheduler *scheduler.Scheduler
}

func New(
	cfg *config.Config,
	client *strapi.Client,
	db database.DB,
	views *cache.ViewCache,
	notifications *email.NotificationService,
	avatars *gravatar.Resolver,
	sched *scheduler.Scheduler,
) *Handler {
	return &Handler{
		cfg:       cfg,
		client:    client,
		db:        db,
		views:     views,
		email:     notifications,
		avatars:   avatars,
		scheduler: sched,
	}
}

// fail answers a failed request. A 401 from the CMS has already ended the
// session, so the client is sent back to sign in.
func fail(c *gin.Context, status int, err error, message string) {
	if strapi.IsUnauthorized(err) {
		c.Redirect(http.StatusFound, auth.SignInPath)
		return
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}

func succeed(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// idParam parses the positive integer path parameter name.
func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// tableQuery binds the table query of the request and fills in the configured defaults.
func (h *Handler) tableQuery(c *gin.Context) (table.Query, bool) {
	var q table.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid table query"})
		return table.Query{}, false
	}
	if q.FilterField == "" {
		q.FilterField = h.cfg.Table.DefaultFilterField
	}
	if q.OrderBy == "" {
		q.OrderBy = h.cfg.Table.DefaultOrderBy
	}
	q.Order = table.ParseOrder(string(q.Order))
	q.PageSize = h.cfg.Table.ClampPageSize(q.PageSize)
	return q, true
}
