// Package session keeps the signed-in identity in the cookie session and
// announces when it ends.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "minedash_session"

// Session keys.
const (
	keyToken          = "jwt"
	keyUserID         = "userId"
	keyRecommenderID  = "recommenderId"
	keyRoleID         = "userRoleId"
	keyTokenIssueTime = "tokenIssueTime"
	keyViewID         = "viewId"
)

const ginKey = "session"

// Identity is what minedash remembers about the signed-in user.
type Identity struct {
	Token         string
	UserID        int
	RecommenderID string
	RoleID        string
	IssuedAt      time.Time
}

// Expired reports whether the identity's token is older than ttl.
func (i Identity) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(i.IssuedAt) > ttl
}

// Session is a typed view on the cookie session of one request. It is safe
// for concurrent use by the goroutines serving that request.
type Session struct {
	mu       sync.Mutex
	raw      sessions.Session
	notifier *Notifier
	ended    bool
}

// Middleware attaches a Session to every request. It must run after sessions.Sessions.
func Middleware(notifier *Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := &Session{
			raw:      sessions.Default(c),
			notifier: notifier,
		}
		c.Set(ginKey, s)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), s))
		c.Next()
	}
}

// Get returns the Session attached by Middleware.
func Get(c *gin.Context) *Session {
	return c.MustGet(ginKey).(*Session)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

// TokenFromContext returns the token of the session in ctx, or an empty string.
func TokenFromContext(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return s.Token()
}

// Identity returns the stored identity. ok is false when nobody is signed in.
func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity()
}

func (s *Session) identity() (Identity, bool) {
	token := s.getString(keyToken)
	if token == "" {
		return Identity{}, false
	}
	id := Identity{
		Token:         token,
		UserID:        s.getInt(keyUserID),
		RecommenderID: s.getString(keyRecommenderID),
		RoleID:        s.getString(keyRoleID),
	}
	if ms := s.getInt64(keyTokenIssueTime); ms > 0 {
		id.IssuedAt = time.UnixMilli(ms)
	}
	return id, true
}

// Token returns the stored token or an empty string.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ""
	}
	return s.getString(keyToken)
}

// SetIdentity stores id and saves the session.
func (s *Session) SetIdentity(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id.IssuedAt.IsZero() {
		id.IssuedAt = time.Now()
	}
	s.raw.Set(keyToken, id.Token)
	s.raw.Set(keyUserID, id.UserID)
	s.raw.Set(keyRecommenderID, id.RecommenderID)
	s.raw.Set(keyRoleID, id.RoleID)
	s.raw.Set(keyTokenIssueTime, id.IssuedAt.UnixMilli())
	s.ended = false
	return s.raw.Save()
}

// ViewID returns the id under which this session's view state is cached,
// creating one on first use.
func (s *Session) ViewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.getString(keyViewID); id != "" {
		return id, nil
	}
	id := uuid.NewString()
	s.raw.Set(keyViewID, id)
	return id, s.raw.Save()
}

// End clears the session and notifies subscribers. Ending an already ended
// or anonymous session is a no-op.
func (s *Session) End(ctx context.Context, reason string) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	id, ok := s.identity()
	if !ok {
		s.mu.Unlock()
		return nil
	}
	event := LogoutEvent{
		UserID: id.UserID,
		ViewID: s.getString(keyViewID),
		Reason: reason,
	}

	s.raw.Clear()
	s.raw.Options(sessions.Options{Path: "/", MaxAge: -1})
	s.ended = true
	err := s.raw.Save()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	log.Info("Session ended", "user_id", event.UserID, "reason", reason)
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}
	return nil
}

func (s *Session) getString(key string) string {
	if val := s.raw.Get(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (s *Session) getInt(key string) int {
	if val := s.raw.Get(key); val != nil {
		if i, ok := val.(int); ok {
			return i
		}
	}
	return 0
}

func (s *Session) getInt64(key string) int64 {
	if val := s.raw.Get(key); val != nil {
		if i, ok := val.(int64); ok {
			return i
		}
	}
	return 0
}
