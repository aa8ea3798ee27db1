package auth

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// JWTIssuer issues signed tokens that expire after TTL.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
}

func (i JWTIssuer) IssueToken(user *models.User) (string, error) {
	return utils.GenerateToken(i.Secret, user.ID, user.Username, i.TTL)
}

// JWTVerifier replaces the fallback rule with real token validation: the
// token must be correctly signed, unexpired, not revoked and name an active user.
type JWTVerifier struct {
	Secret    []byte
	Users     UserStore
	Blacklist *utils.TokenBlacklist
}

func (v JWTVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	if v.Blacklist != nil && v.Blacklist.Contains(ctx, token) {
		return nil, utils.AuthenticationFailure("token revoked", nil)
	}
	claims, err := utils.ParseToken(v.Secret, token)
	if err != nil {
		return nil, utils.AuthenticationFailure("invalid token", err)
	}
	user, err := v.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.AuthenticationFailure("invalid token", err)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, utils.AuthenticationFailure("user inactive", nil)
	}
	return user, nil
}

// Revoke blacklists a valid token until it would have expired. Invalid tokens are ignored.
func (v JWTVerifier) Revoke(ctx context.Context, token string) error {
	claims, err := utils.ParseToken(v.Secret, token)
	if err != nil || claims.ExpiresAt == nil || v.Blacklist == nil {
		return nil
	}
	v.Blacklist.Add(ctx, token, claims.ExpiresAt.Time)
	return nil
}
