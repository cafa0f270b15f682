package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/samber/lo"
)

// ContactView is the contact card.
type ContactView struct {
	Email         string `json:"email"`
	TelegramGroup string `json:"telegramGroup"`
	UserID        int    `json:"userId"`
	RecommenderID string `json:"recommenderId"`
}

// Contact shows the support contact. Missing values fall back to the
// configured defaults and to the signed-in identity.
func (h *Handler) Contact(c *gin.Context) {
	id := auth.CurrentIdentity(c)

	contact, err := h.client.Contact(c.Request.Context())
	if err != nil {
		if strapi.IsUnauthorized(err) {
			fail(c, http.StatusUnauthorized, err, "")
			return
		}
		log.Warn("Failed to load contact, using fallbacks", "error", err)
		contact = &strapi.Contact{}
	}

	c.JSON(http.StatusOK, h.contactView(contact, id.UserID, id.RecommenderID))
}

func (h *Handler) contactView(contact *strapi.Contact, userID int, recommenderID string) ContactView {
	owner := contact.Owner
	if owner == nil {
		owner = &strapi.User{}
	}
	return ContactView{
		Email:         lo.CoalesceOrEmpty(owner.Email, h.cfg.Contact.Email),
		TelegramGroup: lo.CoalesceOrEmpty(contact.TelegramGroup, h.cfg.Contact.TelegramGroup),
		UserID:        lo.CoalesceOrEmpty(owner.ID, userID),
		RecommenderID: lo.CoalesceOrEmpty(owner.RecommenderID, recommenderID),
	}
}
