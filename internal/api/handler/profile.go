package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/strapi"
)

// ProfileView is the profile form of the signed-in user.
type ProfileView struct {
	ID                 int    `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Surname            string `json:"surname"`
	ResidentialAddress string `json:"residentialAddress"`
	RecommenderID      string `json:"recommenderId"`
	Avatar             string `json:"avatar,omitempty"`
}

type profileForm struct {
	Name               string `form:"name" json:"name" binding:"required"`
	Surname            string `form:"surname" json:"surname" binding:"required"`
	Username           string `form:"username" json:"username" binding:"required"`
	ResidentialAddress string `form:"residentialAddress" json:"residentialAddress"`
}

func (h *Handler) profileView(u *strapi.User) ProfileView {
	return ProfileView{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Name:               u.Name,
		Surname:            u.Surname,
		ResidentialAddress: u.ResidentialAddress,
		RecommenderID:      u.RecommenderID,
		Avatar:             h.avatars.URL(u.Email),
	}
}

// Profile shows the signed-in user's profile.
func (h *Handler) Profile(c *gin.Context) {
	me, err := h.client.Me(c.Request.Context())
	if err != nil {
		log.Error("Failed to load profile", "user_id", auth.CurrentIdentity(c).UserID, "error", err)
		fail(c, http.StatusBadGateway, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, h.profileView(me))
}

// UpdateProfile saves the profile form.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Name, surname and username are required"})
		return
	}

	ctx := c.Request.Context()
	id := auth.CurrentIdentity(c)
	user, err := h.client.UpdateUser(ctx, id.UserID, strapi.ProfileUpdate{
		Username:           form.Username,
		Name:               form.Name,
		Surname:            form.Surname,
		ResidentialAddress: form.ResidentialAddress,
	})
	if err != nil {
		log.Error("Failed to update profile", "user_id", id.UserID, "error", err)
		fail(c, http.StatusBadGateway, err, strapi.Message(err, "Failed to update profile"))
		return
	}

	database.RecordEvent(ctx, h.db, database.HistoryEvent{
		EventType: database.HistoryEventProfileUpdated,
		ActorID:   id.UserID,
		SubjectID: &id.UserID,
	})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"profile": h.profileView(user),
	})
}
