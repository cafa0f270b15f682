package handler

import (
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/cache"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/scheduler"
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskView is the usage of the volume holding the audit database.
type DiskView struct {
	Path        string  `json:"path"`
	Total       string  `json:"total"`
	Used        string  `json:"used"`
	Free        string  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// SystemView summarizes the background machinery of the server.
type SystemView struct {
	Jobs     []scheduler.JobInfo `json:"jobs"`
	Caches   []*cache.Stats      `json:"caches"`
	Database *database.Stats     `json:"database,omitempty"`
	Disk     *DiskView           `json:"disk,omitempty"`
}

// System shows scheduler jobs, cache statistics and audit store usage.
func (h *Handler) System(c *gin.Context) {
	ctx := c.Request.Context()
	view := SystemView{
		Jobs:   []scheduler.JobInfo{},
		Caches: h.views.GetStats(),
	}

	if h.scheduler != nil {
		view.Jobs = h.scheduler.GetJobs()
		slices.SortFunc(view.Jobs, func(a, b scheduler.JobInfo) int { return strings.Compare(a.ID, b.ID) })
	}

	if stats, err := h.db.GetStats(ctx); err != nil {
		log.Warn("Failed to read database stats", "error", err)
	} else {
		view.Database = stats
	}

	dir := filepath.Dir(h.cfg.Database.Path)
	if usage, err := disk.UsageWithContext(ctx, dir); err != nil {
		log.Debug("Failed to read disk usage", "path", dir, "error", err)
	} else {
		view.Disk = &DiskView{
			Path:        usage.Path,
			Total:       humanize.Bytes(usage.Total),
			Used:        humanize.Bytes(usage.Used),
			Free:        humanize.Bytes(usage.Free),
			UsedPercent: usage.UsedPercent,
		}
	}

	c.JSON(http.StatusOK, view)
}

// RunJob triggers a scheduled job right away.
func (h *Handler) RunJob(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "scheduler is not running"})
		return
	}
	id := c.Param("id")
	if _, ok := h.scheduler.GetJob(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "job not found"})
		return
	}
	if err := h.scheduler.RunJobNow(id); err != nil {
		log.Error("Failed to run job", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to run job"})
		return
	}
	succeed(c, "Job triggered")
}
