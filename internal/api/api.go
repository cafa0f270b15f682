// Package api wires the HTTP server: sessions, the CMS client and all routes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/api/handler"
	"github.com/minecom/minedash/internal/cache"
	"github.com/minecom/minedash/internal/config"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/gravatar"
	"github.com/minecom/minedash/internal/notify/email"
	"github.com/minecom/minedash/internal/scheduler"
	"github.com/minecom/minedash/internal/session"
	"github.com/minecom/minedash/internal/strapi"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	server    *http.Server
	client    *strapi.Client
	db        database.DB
	views     *cache.ViewCache
	notifier  *session.Notifier
	scheduler *scheduler.Scheduler
}

// New creates the server. sched may be nil, in which case the system view
// lists no jobs.
func New(cfg *config.Config, db database.DB, sched *scheduler.Scheduler, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := auth.RegisterPasswordValidation(cfg.Auth.PasswordPolicy); err != nil {
		return nil, fmt.Errorf("failed to register password validation: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		db:        db,
		views:     cache.NewViewCache(cfg.Cache),
		notifier:  session.NewNotifier(),
		scheduler: sched,
	}
	s.client = strapi.New(cfg.Strapi,
		strapi.WithTokenSource(session.TokenFromContext),
		strapi.WithUnauthorizedHandler(s.onUnauthorized),
	)
	s.notifier.Subscribe(s.onLogout)

	if sched != nil {
		if err := sched.AddClearViewCacheJob(cfg.Cache.CleanupSchedule, s.views.ClearAll); err != nil {
			return nil, err
		}
	}

	s.ginEngine.Use(gin.Recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// onUnauthorized ends the session of a request the CMS answered with 401.
func (s *Server) onUnauthorized(ctx context.Context) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return
	}
	if err := sess.End(ctx, session.ReasonUnauthorized); err != nil {
		log.Error("Failed to end unauthorized session", "error", err)
	}
}

// onLogout drops the view state of an ended session and audits it.
func (s *Server) onLogout(ctx context.Context, event session.LogoutEvent) {
	if event.ViewID != "" {
		s.views.DeleteBankRecordView(ctx, event.ViewID)
	}
	database.RecordEvent(ctx, s.db, database.HistoryEvent{
		EventType: database.HistoryEventSignOut,
		ActorID:   event.UserID,
		Details:   event.Reason,
	})
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(session.CookieName, store))
	s.ginEngine.Use(session.Middleware(s.notifier))
}

func (s *Server) setupRoutes() {
	a := auth.NewHandler(s.client, s.cfg.Auth, s.db)
	h := handler.New(
		s.cfg,
		s.client,
		s.db,
		s.views,
		email.New(s.cfg.Email),
		gravatar.New(s.cfg.Gravatar),
		s.scheduler,
	)

	s.ginEngine.GET("/sign-in", a.SignInPage)
	s.ginEngine.POST("/sign-in", a.SignIn)
	s.ginEngine.GET("/sign-up", a.SignUpPage)
	s.ginEngine.POST("/sign-up", a.SignUp)
	s.ginEngine.GET("/sign-out", a.SignOut)
	s.ginEngine.GET("/404", h.NotFound)
	s.ginEngine.GET("/403", h.Forbidden)
	s.ginEngine.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/404")
	})

	protected := s.ginEngine.Group("/")
	protected.Use(auth.RequireAuth(s.cfg.Auth.GetTokenTTL()))

	protected.GET("/", h.Dashboard)

	protected.GET("/profile", h.Profile)
	protected.POST("/profile", h.UpdateProfile)

	protected.GET("/transaction", h.Transaction)
	protected.POST("/transaction/deposit", h.Deposit)
	protected.POST("/transaction/withdrawal", h.Withdrawal)

	protected.GET("/contact", h.Contact)

	admin := protected.Group("/")
	admin.Use(auth.RequireRole(s.cfg.Auth.AdminRoles...))

	admin.GET("/user", h.Users)
	admin.POST("/user", h.CreateUser)
	admin.GET("/user/roles", h.Roles)
	admin.DELETE("/user/:id", h.DeleteUser)

	admin.GET("/bank-record", h.BankRecords)
	admin.POST("/bank-record/refresh", h.RefreshBankRecords)
	admin.DELETE("/bank-record/:id", h.DeleteBankRecord)
	admin.POST("/bank-record/select/:id", h.ToggleBankRecord)
	admin.POST("/bank-record/select-all", h.SelectAllBankRecords)

	admin.GET("/history", h.History)
	admin.GET("/system", h.System)
	admin.POST("/system/jobs/:id/run", h.RunJob)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
