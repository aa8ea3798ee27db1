package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// Credentials is everything a request offers for identification.
type Credentials struct {
	Method string
	// Authorization is the raw Authorization header; empty when absent.
	Authorization string
	// Token is a raw token supplied outside the header, used only when the header is absent.
	Token    string
	Username *string
	Password *string
	// SessionUserID is the user id stored in the session, zero when there is none.
	SessionUserID uint
}

// TokenVerifier turns a token that survived extraction into a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// FallbackVerifier authenticates every token as the first active user, in id
// order, regardless of the token's content. Any holder of any string acts as
// that user; swap in JWTVerifier for real validation.
type FallbackVerifier struct {
	Users UserStore
}

func (v FallbackVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	user, err := v.Users.FirstActive(ctx)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.AuthenticationFailure("invalid token", err)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		utils.Sugar.Debugw("no active users for token fallback", "token", tokenPrefix(token))
		return nil, nil
	}
	utils.Sugar.Debugw("token resolved to fallback user", "token", tokenPrefix(token), "user", user.Username)
	return user, nil
}

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ExtractToken strips a "Token " or "Bearer " prefix from the header, or uses
// the header verbatim. Without a header the raw token is used.
func ExtractToken(authorization, raw string) string {
	if authorization == "" {
		return raw
	}
	for _, prefix := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(authorization, prefix) {
			return authorization[len(prefix):]
		}
	}
	return authorization
}

// BearerAuthenticator resolves the principal of a single request. Safe methods
// are never authenticated here; read access is public.
type BearerAuthenticator struct {
	Users    UserStore
	Verifier TokenVerifier
}

func NewBearerAuthenticator(users UserStore, verifier TokenVerifier) *BearerAuthenticator {
	return &BearerAuthenticator{Users: users, Verifier: verifier}
}

// Resolve returns (nil, nil) when the request carries no usable credentials
// and an AuthenticationFailure when they point at a user that does not exist.
func (a *BearerAuthenticator) Resolve(ctx context.Context, c Credentials) (*models.User, error) {
	if IsSafeMethod(c.Method) {
		utils.Sugar.Debugw("safe method, skipping token auth", "method", c.Method)
		return nil, nil
	}
	token := ExtractToken(c.Authorization, c.Token)
	if token == "" {
		utils.Sugar.Debug("no token present")
		return nil, nil
	}
	return resolveToken(ctx, a.Users, a.Verifier, token, c.SessionUserID)
}

// resolveToken prefers the session principal and otherwise defers to verifier.
// The token is not cross-checked against the session user.
func resolveToken(ctx context.Context, users UserStore, verifier TokenVerifier, token string, sessionUserID uint) (*models.User, error) {
	if sessionUserID != 0 {
		user, err := users.FindByID(ctx, sessionUserID)
		if errors.Is(err, utils.ErrNotFound) {
			utils.Sugar.Warnw("session user vanished", "user_id", sessionUserID)
			return nil, utils.AuthenticationFailure("invalid token", err)
		}
		if err != nil {
			return nil, err
		}
		utils.Sugar.Debugw("token request already has a session user", "token", tokenPrefix(token), "user", user.Username)
		return user, nil
	}
	return verifier.Verify(ctx, token)
}

func tokenPrefix(token string) string {
	if len(token) > 10 {
		return token[:10] + "..."
	}
	return token
}
