package auth

import (
	"context"
	"errors"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// Backend authenticates the login flow. A nil user with a nil error means
// "not mine"; the next backend in a Chain gets a turn.
type Backend interface {
	Authenticate(ctx context.Context, c Credentials) (*models.User, error)
}

// TokenBackend signs in with a token alone. It steps aside whenever a
// username and password are both supplied, and applies no safe-method skip.
type TokenBackend struct {
	Users    UserStore
	Verifier TokenVerifier
}

func (b TokenBackend) Authenticate(ctx context.Context, c Credentials) (*models.User, error) {
	if c.Username != nil && c.Password != nil {
		utils.Sugar.Debug("username and password provided, skipping token backend")
		return nil, nil
	}
	token := ExtractToken(c.Authorization, c.Token)
	if token == "" {
		utils.Sugar.Debug("no token found, skipping token backend")
		return nil, nil
	}
	return resolveToken(ctx, b.Users, b.Verifier, token, c.SessionUserID)
}

// PasswordBackend checks a username and bcrypt password. Inactive accounts never authenticate.
type PasswordBackend struct {
	Users UserStore
}

func (b PasswordBackend) Authenticate(ctx context.Context, c Credentials) (*models.User, error) {
	if c.Username == nil || c.Password == nil {
		return nil, nil
	}
	user, err := b.Users.FindByUsername(ctx, *c.Username)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !utils.CheckPassword(user.PasswordHash, *c.Password) {
		return nil, nil
	}
	return user, nil
}

// Chain tries each backend in order and returns the first user found.
type Chain []Backend

func (ch Chain) Authenticate(ctx context.Context, c Credentials) (*models.User, error) {
	for _, b := range ch {
		user, err := b.Authenticate(ctx, c)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, nil
}
