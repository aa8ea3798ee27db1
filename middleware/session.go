package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

// SessionUserKey stores the logged-in user id inside the session.
const SessionUserKey = "_auth_user_id"

// NewSessionManager returns an in-memory session manager whose cookies live for lifetime.
func NewSessionManager(lifetime time.Duration) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = "sessionid"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// LoginSession binds userID to the session, rotating the session token first.
func LoginSession(ctx context.Context, sm *scs.SessionManager, userID uint) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionUserKey, int(userID))
	return nil
}

// LogoutSession throws the session away.
func LogoutSession(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// SessionUserID returns the logged-in user id, or zero.
func SessionUserID(ctx context.Context, sm *scs.SessionManager) uint {
	if sm == nil {
		return 0
	}
	return uint(sm.GetInt(ctx, SessionUserKey))
}
