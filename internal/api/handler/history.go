package handler

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/mergestat/timediff"
	"github.com/minecom/minedash/internal/database"
	"github.com/samber/lo"
)

const historyPageSize = 20

type historyQuery struct {
	Page     int                       `form:"page" binding:"gte=0,lte=1000000"`
	PageSize int                       `form:"pageSize" binding:"gte=0,lte=100"`
	Type     database.HistoryEventType `form:"type"`
	SortBy   string                    `form:"sortBy"`
	Order    database.SortOrder        `form:"order"`
}

// HistoryEventView is one line of the audit log.
type HistoryEventView struct {
	ID        uint                      `json:"id"`
	Type      database.HistoryEventType `json:"type"`
	ActorID   int                       `json:"actorId"`
	SubjectID *int                      `json:"subjectId,omitempty"`
	Details   string                    `json:"details,omitempty"`
	Time      time.Time                 `json:"time"`
	Ago       string                    `json:"ago"`
}

// History lists the local audit events, newest first. Pages start at 0 like
// every other table.
func (h *Handler) History(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid history query"})
		return
	}
	if q.PageSize == 0 {
		q.PageSize = historyPageSize
	}

	ctx := c.Request.Context()
	var (
		events []database.HistoryEvent
		total  int64
		err    error
	)
	if q.Type != "" {
		events, total, err = h.db.GetHistoryEventsByEventType(ctx, q.Type, q.Page+1, q.PageSize)
	} else {
		events, total, err = h.db.GetHistoryEvents(ctx, q.Page+1, q.PageSize, q.SortBy, q.Order)
	}
	if err != nil {
		log.Error("Failed to load history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": lo.Map(events, func(e database.HistoryEvent, _ int) HistoryEventView {
			return HistoryEventView{
				ID:        e.ID,
				Type:      e.EventType,
				ActorID:   e.ActorID,
				SubjectID: e.SubjectID,
				Details:   e.Details,
				Time:      e.EventTime,
				Ago:       timediff.TimeDiff(e.EventTime),
			}
		}),
		"total":    total,
		"page":     q.Page,
		"pageSize": q.PageSize,
	})
}
