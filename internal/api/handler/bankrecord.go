package handler

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/records"
	"github.com/minecom/minedash/internal/session"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
	"github.com/samber/lo"
)

func (h *Handler) recordDefaults() records.Defaults {
	return records.Defaults{
		FilterField:     h.cfg.Table.DefaultFilterField,
		OrderBy:         h.cfg.Table.DefaultOrderBy,
		PageSize:        h.cfg.Table.DefaultPageSize,
		PageSizeOptions: h.cfg.Table.PageSizeOptions,
	}
}

// bankRecordView returns the cached view of viewID or a fresh idle one.
func (h *Handler) bankRecordView(ctx context.Context, viewID string) *records.View {
	if snap, ok := h.views.GetBankRecordView(ctx, viewID); ok {
		return records.Restore(snap, h.recordDefaults())
	}
	return records.NewView(h.recordDefaults())
}

// withBankRecordView runs fn on the session's view, stores the result and
// answers with the page described by the request query.
func (h *Handler) withBankRecordView(c *gin.Context, fn func(ctx context.Context, v *records.View) error) {
	q, ok := h.bankRecordQuery(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	viewID, err := session.Get(c).ViewID()
	if err != nil {
		log.Error("Failed to assign view id", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": records.LoadErrorMessage})
		return
	}

	unlock := h.views.LockBankRecordView(viewID)
	defer unlock()

	view := h.bankRecordView(ctx, viewID)
	err = fn(ctx, view)
	if strapi.IsUnauthorized(err) {
		h.views.DeleteBankRecordView(ctx, viewID)
		fail(c, http.StatusUnauthorized, err, records.LoadErrorMessage)
		return
	}

	page := view.Page(q)
	h.views.SetBankRecordView(ctx, viewID, view.Snapshot())
	c.JSON(http.StatusOK, page)
}

// refreshBankRecordView reloads the stored view of viewID. A 401 drops the
// view instead of storing it under an ended session.
func (h *Handler) refreshBankRecordView(ctx context.Context, viewID string) error {
	unlock := h.views.LockBankRecordView(viewID)
	defer unlock()

	view := h.bankRecordView(ctx, viewID)
	err := view.Refresh(ctx, h.client)
	if strapi.IsUnauthorized(err) {
		h.views.DeleteBankRecordView(ctx, viewID)
		return err
	}
	if err != nil {
		log.Warn("Failed to refresh bank records", "view_id", viewID, "error", err)
	}
	h.views.SetBankRecordView(ctx, viewID, view.Snapshot())
	return err
}

// bankRecordQuery binds the table query. Unlike tableQuery it leaves the
// defaults to the view, which also validates the page size.
func (h *Handler) bankRecordQuery(c *gin.Context) (table.Query, bool) {
	var q table.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid table query"})
		return table.Query{}, false
	}
	q.Order = table.ParseOrder(string(q.Order))
	return q, true
}

// BankRecords shows the reconciled bank-record table, loading it on first use.
func (h *Handler) BankRecords(c *gin.Context) {
	h.withBankRecordView(c, func(ctx context.Context, v *records.View) error {
		return v.Ensure(ctx, h.client)
	})
}

// RefreshBankRecords reloads the table from the CMS.
func (h *Handler) RefreshBankRecords(c *gin.Context) {
	h.withBankRecordView(c, func(ctx context.Context, v *records.View) error {
		return v.Refresh(ctx, h.client)
	})
}

// DeleteBankRecord deletes the user behind a row. Failures leave the table unchanged.
func (h *Handler) DeleteBankRecord(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor := auth.CurrentIdentity(c).UserID

	h.withBankRecordView(c, func(ctx context.Context, v *records.View) error {
		if err := v.Delete(ctx, h.client, userID); err != nil {
			return err
		}
		database.RecordEvent(ctx, h.db, database.HistoryEvent{
			EventType: database.HistoryEventUserDeleted,
			ActorID:   actor,
			SubjectID: lo.ToPtr(userID),
		})
		return nil
	})
}

// ToggleBankRecord flips the selection of one user id.
func (h *Handler) ToggleBankRecord(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.withBankRecordView(c, func(_ context.Context, v *records.View) error {
		v.Toggle(userID)
		return nil
	})
}

type selectAllForm struct {
	Checked bool `form:"checked" json:"checked"`
}

// SelectAllBankRecords selects every loaded user id, or clears the selection.
func (h *Handler) SelectAllBankRecords(c *gin.Context) {
	var form selectAllForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid selection"})
		return
	}
	h.withBankRecordView(c, func(_ context.Context, v *records.View) error {
		v.SelectAll(form.Checked)
		return nil
	})
}
