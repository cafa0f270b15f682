package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/session"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
	"github.com/samber/lo"
)

// UserRow is one line of the user table.
type UserRow struct {
	ID            int    `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	RecommenderID string `json:"recommenderId"`
	Confirmed     bool   `json:"confirmed"`
	Blocked       bool   `json:"blocked"`
	Avatar        string `json:"avatar,omitempty"`
}

// Field implements table.Row.
func (r UserRow) Field(name string) table.Value {
	switch name {
	case "id":
		return table.Int(r.ID)
	case "username":
		return table.Text(r.Username)
	case "email":
		return table.Text(r.Email)
	case "role":
		return table.Text(r.Role)
	case "recommenderId":
		return table.Text(r.RecommenderID)
	case "confirmed":
		return table.Text(lo.Ternary(r.Confirmed, "yes", "no"))
	default:
		return table.Text("")
	}
}

// UsersPage is one page of the user table.
type UsersPage struct {
	table.Result[UserRow]
	FilterField     string `json:"filterField"`
	Filter          string `json:"filter"`
	OrderBy         string `json:"orderBy"`
	Order           string `json:"order"`
	NotFound        bool   `json:"notFound"`
	PageSizeOptions []int  `json:"pageSizeOptions"`
}

type createUserForm struct {
	Username      string `form:"username" json:"username" binding:"required"`
	Email         string `form:"email" json:"email" binding:"required,email"`
	Password      string `form:"password" json:"password" binding:"required"`
	Role          int    `form:"role" json:"role" binding:"required,gt=0"`
	RecommenderID string `form:"recommenderId" json:"recommenderId" binding:"required"`
	Confirmed     bool   `form:"confirmed" json:"confirmed"`
}

// Users lists all users.
func (h *Handler) Users(c *gin.Context) {
	q, ok := h.tableQuery(c)
	if !ok {
		return
	}

	users, err := h.client.ListUsers(c.Request.Context())
	if err != nil {
		log.Error("Failed to list users", "error", err)
		fail(c, http.StatusBadGateway, err, "Failed to load users")
		return
	}

	rows := lo.Map(users, func(u strapi.User, _ int) UserRow {
		row := UserRow{
			ID:            u.ID,
			Username:      u.Username,
			Email:         u.Email,
			RecommenderID: u.RecommenderID,
			Confirmed:     u.Confirmed,
			Blocked:       u.Blocked,
			Avatar:        h.avatars.URL(u.Email),
		}
		if u.Role != nil {
			row.Role = u.Role.Name
		}
		return row
	})

	result := table.Apply(rows, q)
	c.JSON(http.StatusOK, UsersPage{
		Result:          result,
		FilterField:     q.FilterField,
		Filter:          q.Filter,
		OrderBy:         q.OrderBy,
		Order:           string(q.Order),
		NotFound:        result.Filtered == 0 && q.Filter != "",
		PageSizeOptions: h.cfg.Table.PageSizeOptions,
	})
}

// CreateUser creates a user from the admin form and refreshes the bank-record
// view of the session.
func (h *Handler) CreateUser(c *gin.Context) {
	var form createUserForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Please fill in all required fields"})
		return
	}

	ctx := c.Request.Context()
	id := auth.CurrentIdentity(c)
	user, err := h.client.CreateUser(ctx, strapi.NewUser{
		Username:      form.Username,
		Email:         form.Email,
		Password:      form.Password,
		Role:          form.Role,
		RecommenderID: form.RecommenderID,
		Confirmed:     form.Confirmed,
	})
	if err != nil {
		log.Error("Failed to create user", "username", form.Username, "error", err)
		fail(c, http.StatusBadGateway, err, strapi.Message(err, "Failed to create user"))
		return
	}

	database.RecordEvent(ctx, h.db, database.HistoryEvent{
		EventType: database.HistoryEventUserCreated,
		ActorID:   id.UserID,
		SubjectID: lo.ToPtr(user.ID),
		Details:   user.Username,
	})
	log.Info("Created user", "id", user.ID, "username", user.Username, "by", id.UserID)

	if viewID, err := session.Get(c).ViewID(); err == nil {
		if err := h.refreshBankRecordView(ctx, viewID); strapi.IsUnauthorized(err) {
			fail(c, http.StatusUnauthorized, err, "Failed to refresh bank records")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User created successfully", "id": user.ID})
}

// DeleteUser deletes a user.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.client.DeleteUser(ctx, userID); err != nil {
		log.Error("Failed to delete user", "id", userID, "error", err)
		fail(c, http.StatusBadGateway, err, "Failed to delete user")
		return
	}

	database.RecordEvent(ctx, h.db, database.HistoryEvent{
		EventType: database.HistoryEventUserDeleted,
		ActorID:   auth.CurrentIdentity(c).UserID,
		SubjectID: lo.ToPtr(userID),
	})
	if viewID, err := session.Get(c).ViewID(); err == nil {
		h.views.DeleteBankRecordView(ctx, viewID)
	}
	succeed(c, "User deleted successfully")
}

// Roles lists the roles offered by the create-user form.
func (h *Handler) Roles(c *gin.Context) {
	ctx := c.Request.Context()
	if roles, ok := h.views.GetRoles(ctx); ok {
		c.JSON(http.StatusOK, gin.H{"roles": roles})
		return
	}

	roles, err := h.client.Roles(ctx)
	if err != nil {
		log.Error("Failed to load roles", "error", err)
		fail(c, http.StatusBadGateway, err, "Failed to load roles")
		return
	}
	h.views.SetRoles(ctx, roles)
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}
