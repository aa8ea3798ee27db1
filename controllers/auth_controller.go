package controllers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// usernamePattern allows letters, digits and @.+-_ like most account systems.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// TokenRevoker is implemented by verifiers whose tokens can be withdrawn on logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// AuthController handles registration, login, logout and token refresh.
type AuthController struct {
	users    *auth.GormUserStore
	issuer   auth.TokenIssuer
	login    auth.Backend
	revoker  TokenRevoker
	sessions *scs.SessionManager
}

// NewAuthController creates a new AuthController. Login tries the password
// backend first and then a token on its own.
func NewAuthController(users *auth.GormUserStore, issuer auth.TokenIssuer, verifier auth.TokenVerifier, sessions *scs.SessionManager) *AuthController {
	a := &AuthController{
		users:  users,
		issuer: issuer,
		login: auth.Chain{
			auth.PasswordBackend{Users: users},
			auth.TokenBackend{Users: users, Verifier: verifier},
		},
		sessions: sessions,
	}
	if r, ok := verifier.(TokenRevoker); ok {
		a.revoker = r
	}
	return a
}

// Register creates a staff account, logs it in and returns a token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required,max=150"`
		Email     string `json:"email" binding:"omitempty,email,max=254"`
		Password1 string `json:"password1" binding:"required"`
		Password2 string `json:"password2" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		utils.Fail(ctx, utils.ValidationError("username may contain only letters, digits and @/./+/-/_", "username"))
		return
	}
	if req.Password1 != req.Password2 {
		utils.Fail(ctx, utils.ValidationError("the two password fields didn't match", "password2"))
		return
	}

	hash, err := utils.HashPassword(req.Password1)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
	}
	if err := a.users.Create(ctx.Request.Context(), user); err != nil {
		utils.Fail(ctx, err)
		return
	}

	a.respondWithToken(ctx, http.StatusCreated, user)
}

// Login accepts a username and password, or a token on its own.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Fail(ctx, err)
			return
		}
	}

	reqCtx := ctx.Request.Context()
	user, err := a.login.Authenticate(reqCtx, auth.Credentials{
		Method:        ctx.Request.Method,
		Authorization: ctx.GetHeader("Authorization"),
		Username:      req.Username,
		Password:      req.Password,
		SessionUserID: middleware.SessionUserID(reqCtx, a.sessions),
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if user == nil {
		utils.Fail(ctx, utils.AuthenticationFailure("unable to log in with provided credentials", nil))
		return
	}

	a.respondWithToken(ctx, http.StatusOK, user)
}

// Logout ends the session and, when tokens are revocable, withdraws the presented one.
func (a *AuthController) Logout(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	if token := auth.ExtractToken(ctx.GetHeader("Authorization"), ""); token != "" && a.revoker != nil {
		if err := a.revoker.Revoke(reqCtx, token); err != nil {
			utils.Fail(ctx, err)
			return
		}
	}
	if err := middleware.LogoutSession(reqCtx, a.sessions); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// RefreshToken issues a new token for the user logged in to this session.
func (a *AuthController) RefreshToken(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	userID := middleware.SessionUserID(reqCtx, a.sessions)
	if userID == 0 {
		utils.Fail(ctx, utils.AuthenticationFailure("authentication credentials were not provided", nil))
		return
	}
	user, err := a.users.FindByID(reqCtx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		err = utils.AuthenticationFailure("session user no longer exists", err)
	}
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	token, err := a.issuer.IssueToken(user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": newUserBrief(user)})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		utils.Fail(ctx, utils.AuthenticationFailure("authentication credentials were not provided", nil))
		return
	}
	utils.Success(ctx, gin.H{
		"user":     newUserDetail(user),
		"is_staff": user.IsStaff,
	})
}

func (a *AuthController) respondWithToken(ctx *gin.Context, status int, user *models.User) {
	if err := middleware.LoginSession(ctx.Request.Context(), a.sessions, user.ID); err != nil {
		utils.Fail(ctx, err)
		return
	}
	token, err := a.issuer.IssueToken(user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, status, 0, "success", gin.H{"token": token, "user": newUserBrief(user)})
}
