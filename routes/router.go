package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/controllers"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// Deps is everything the router needs that is built once at boot.
type Deps struct {
	Config   config.AppConfig
	DB       *gorm.DB
	Cache    utils.Cache
	Issuer   auth.TokenIssuer
	Verifier auth.TokenVerifier
	Sessions *scs.SessionManager
}

// SetupRouter wires routes, middlewares, and controllers. The returned engine
// must be served behind deps.Sessions.LoadAndSave.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	// Report binding failures by json field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(utils.JSONFieldName)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	users := auth.NewGormUserStore(deps.DB)
	authenticate := middleware.Authenticate(auth.NewBearerAuthenticator(users, deps.Verifier), users, deps.Sessions)

	postService := services.NewPostService(deps.DB, deps.Cache)
	commentService := services.NewCommentService(deps.DB, cfg.MaxReplyDepth)

	authController := controllers.NewAuthController(users, deps.Issuer, deps.Verifier, deps.Sessions)
	postController := controllers.NewPostController(postService, commentService, deps.Cache, cfg)
	commentController := controllers.NewCommentController(commentService)
	taxonomyController := controllers.NewTaxonomyController(
		services.NewCategoryService(deps.DB, deps.Cache),
		services.NewTagService(deps.DB, deps.Cache),
		deps.Cache, cfg,
	)

	accounts := r.Group("/accounts")
	accounts.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	accounts.POST("/register", authController.Register)
	accounts.POST("/login", authController.Login)
	accounts.POST("/logout", authController.Logout)
	accounts.GET("/logout", authController.Logout)
	accounts.POST("/token/refresh", authController.RefreshToken)
	accounts.GET("/me", authenticate, authController.Me)

	api := r.Group("/api")
	api.Use(middleware.AuthDebug(cfg.AuthDebug), authenticate)

	posts := api.Group("/posts")
	posts.GET("", postController.ListPosts)
	posts.POST("", postController.CreatePost)
	posts.GET("/drafts", postController.ListDrafts)
	posts.GET("/:key", postController.GetPost)
	posts.PUT("/:key", postController.UpdatePost)
	posts.PATCH("/:key", postController.UpdatePost)
	posts.DELETE("/:key", postController.DeletePost)
	posts.POST("/:key/like", postController.LikePost)

	categories := api.Group("/categories")
	categories.GET("", taxonomyController.ListCategories)
	categories.POST("", taxonomyController.CreateCategory)
	categories.GET("/:key", taxonomyController.GetCategory)
	categories.PUT("/:key", taxonomyController.UpdateCategory)
	categories.PATCH("/:key", taxonomyController.UpdateCategory)
	categories.DELETE("/:key", taxonomyController.DeleteCategory)

	tags := api.Group("/tags")
	tags.GET("", taxonomyController.ListTags)
	tags.POST("", taxonomyController.CreateTag)
	tags.GET("/:key", taxonomyController.GetTag)
	tags.PUT("/:key", taxonomyController.UpdateTag)
	tags.PATCH("/:key", taxonomyController.UpdateTag)
	tags.DELETE("/:key", taxonomyController.DeleteTag)

	comments := api.Group("/comments")
	comments.GET("", commentController.ListComments)
	comments.POST("", commentController.CreateComment)
	comments.POST("/:id/reply", commentController.Reply)
	comments.PUT("/:id", commentController.UpdateComment)
	comments.PATCH("/:id", commentController.UpdateComment)
	comments.DELETE("/:id", commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
