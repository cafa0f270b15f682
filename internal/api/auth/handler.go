package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/minecom/minedash/internal/config"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/session"
	"github.com/minecom/minedash/internal/strapi"
)

// Messages shown by the auth views.
const (
	SignInFailedMessage     = "Sign in failed. Please check your credentials."
	SignUpFailedMessage     = "Sign up failed. Please try again."
	PasswordMismatchMessage = "Passwords do not match"
	WeakPasswordMessage     = "Password does not meet the requirements"
	MissingFieldsMessage    = "Please fill in all required fields"
)

// Handler serves sign-in, sign-up and sign-out.
type Handler struct {
	client  *strapi.Client
	cfg     *config.AuthConfig
	history database.HistoryDB
}

// NewHandler creates a new auth handler.
func NewHandler(client *strapi.Client, cfg *config.AuthConfig, history database.HistoryDB) *Handler {
	return &Handler{
		client:  client,
		cfg:     cfg,
		history: history,
	}
}

type signInForm struct {
	Identifier string `form:"identifier" json:"identifier" binding:"required"`
	Password   string `form:"password" json:"password" binding:"required"`
}

type signUpForm struct {
	Username        string `form:"username" json:"username" binding:"required"`
	Email           string `form:"email" json:"email" binding:"required,email"`
	Password        string `form:"password" json:"password" binding:"required,password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" binding:"required"`
}

// SignInPage describes the sign-in form. Signed-in users go to the dashboard.
func (h *Handler) SignInPage(c *gin.Context) {
	if _, ok := session.Get(c).Identity(); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fields": []string{"identifier", "password"},
	})
}

// SignUpPage describes the sign-up form. Signed-in users go to the dashboard.
func (h *Handler) SignUpPage(c *gin.Context) {
	if _, ok := session.Get(c).Identity(); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	resp := gin.H{
		"fields": []string{"username", "email", "password", "confirmPassword"},
	}
	if p := h.cfg.PasswordPolicy; p != nil && p.Enabled {
		resp["passwordPolicy"] = gin.H{
			"minLength":    p.MinLength,
			"requireUpper": true,
			"requireLower": true,
			"requireDigit": true,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SignIn exchanges the submitted credentials for a token and starts a session.
func (h *Handler) SignIn(c *gin.Context) {
	var form signInForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": MissingFieldsMessage})
		return
	}

	ctx := c.Request.Context()
	resp, err := h.client.SignIn(ctx, strapi.Credentials{
		Identifier: form.Identifier,
		Password:   form.Password,
	})
	if err != nil {
		log.Warn("Sign in failed", "identifier", form.Identifier, "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": strapi.Message(err, SignInFailedMessage)})
		return
	}

	id, err := h.startSession(c, resp.JWT)
	if err != nil {
		log.Error("Failed to start session", "identifier", form.Identifier, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": SignInFailedMessage})
		return
	}

	database.RecordEvent(ctx, h.history, database.HistoryEvent{
		EventType: database.HistoryEventSignIn,
		ActorID:   id.UserID,
	})
	log.Info("User signed in", "user_id", id.UserID, "role", id.RoleID)
	c.Redirect(http.StatusSeeOther, "/")
}

// SignUp registers an account and starts a session for it.
func (h *Handler) SignUp(c *gin.Context) {
	var form signUpForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": signUpBindingMessage(err)})
		return
	}
	if form.Password != form.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": PasswordMismatchMessage})
		return
	}

	ctx := c.Request.Context()
	resp, err := h.client.Register(ctx, strapi.Registration{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		log.Warn("Sign up failed", "username", form.Username, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": strapi.Message(err, SignUpFailedMessage)})
		return
	}

	id, err := h.startSession(c, resp.JWT)
	if err != nil {
		log.Error("Failed to start session after sign up", "username", form.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": SignUpFailedMessage})
		return
	}

	database.RecordEvent(ctx, h.history, database.HistoryEvent{
		EventType: database.HistoryEventSignUp,
		ActorID:   id.UserID,
	})
	log.Info("User signed up", "user_id", id.UserID)
	c.Redirect(http.StatusSeeOther, "/")
}

// SignOut ends the session.
func (h *Handler) SignOut(c *gin.Context) {
	if err := session.Get(c).End(c.Request.Context(), session.ReasonSignOut); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	c.Redirect(http.StatusFound, SignInPath)
}

// startSession loads the user behind token and stores its identity.
func (h *Handler) startSession(c *gin.Context, token string) (session.Identity, error) {
	me, err := h.client.Me(c.Request.Context(), strapi.WithToken(token))
	if err != nil {
		return session.Identity{}, fmt.Errorf("failed to load signed in user: %w", err)
	}

	id := session.Identity{
		Token:         token,
		UserID:        me.ID,
		RecommenderID: me.RecommenderID,
	}
	if roleID := me.RoleID(); roleID != 0 {
		id.RoleID = strconv.Itoa(roleID)
	}
	if err := session.Get(c).SetIdentity(id); err != nil {
		return session.Identity{}, fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

func signUpBindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == PasswordTag {
				return WeakPasswordMessage
			}
		}
	}
	return MissingFieldsMessage
}
