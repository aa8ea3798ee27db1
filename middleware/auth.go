package middleware

import (
	"context"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// ContextPrincipalKey is the key used to store the authenticated user in Gin context.
const ContextPrincipalKey = "principal"

// PrincipalResolver decides who sent a request.
type PrincipalResolver interface {
	Resolve(ctx context.Context, c auth.Credentials) (*models.User, error)
}

// Authenticate resolves the request principal and stores it in the context.
// Requests without a principal continue anonymously; the services decide
// whether that is enough. Safe methods, which the resolver skips, fall back
// to the session user.
func Authenticate(resolver PrincipalResolver, users auth.UserStore, sessions *scs.SessionManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		reqCtx := ctx.Request.Context()
		creds := auth.Credentials{
			Method:        ctx.Request.Method,
			Authorization: ctx.GetHeader("Authorization"),
			SessionUserID: SessionUserID(reqCtx, sessions),
		}

		principal, err := resolver.Resolve(reqCtx, creds)
		if err != nil {
			utils.Fail(ctx, err)
			ctx.Abort()
			return
		}
		if principal == nil && creds.SessionUserID != 0 && auth.IsSafeMethod(creds.Method) {
			user, err := users.FindByID(reqCtx, creds.SessionUserID)
			if err == nil && user.IsActive {
				principal = user
			}
		}

		if principal != nil {
			ctx.Set(ContextPrincipalKey, principal)
		}
		ctx.Next()
	}
}

// CurrentUser returns the principal stored by Authenticate, or nil.
func CurrentUser(ctx *gin.Context) *models.User {
	value, exists := ctx.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// AuthDebug logs what every /api/ request presented and who it resolved to.
func AuthDebug(enabled bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !enabled || !strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			ctx.Next()
			return
		}
		header := ctx.GetHeader("Authorization")
		if len(header) > 10 {
			header = header[:10]
		}
		utils.Sugar.Debugw("api request",
			"path", ctx.Request.URL.Path,
			"method", ctx.Request.Method,
			"authorization", header,
		)
		ctx.Next()

		user := "anonymous"
		if u := CurrentUser(ctx); u != nil {
			user = u.Username
		}
		utils.Sugar.Debugw("api response", "path", ctx.Request.URL.Path, "user", user, "status", ctx.Writer.Status())
	}
}
