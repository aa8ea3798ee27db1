package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// PostController manages posts, their likes and the draft listing.
type PostController struct {
	posts           *services.PostService
	comments        *services.CommentService
	cache           utils.Cache
	cacheTTL        time.Duration
	defaultPageSize int
	maxPageSize     int
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, comments *services.CommentService, cache utils.Cache, cfg config.AppConfig) *PostController {
	return &PostController{
		posts:           posts,
		comments:        comments,
		cache:           cache,
		cacheTTL:        time.Duration(cfg.CacheTTLSeconds) * time.Second,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// ListPosts returns a page of posts matching the query string filters.
func (p *PostController) ListPosts(ctx *gin.Context) {
	query := ctx.Request.URL.Query()
	page, pageSize := parsePagination(query.Get("page"), query.Get("page_size"), p.defaultPageSize, p.maxPageSize)
	params, err := services.ParseSearchParams(query)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	query.Del("page")
	query.Del("page_size")
	cacheKey := fmt.Sprintf("%slist:%s:page=%d:size=%d", services.PostsCachePrefix, query.Encode(), page, pageSize)
	reqCtx := ctx.Request.Context()
	if b, ok := p.cache.GetBytes(reqCtx, cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	posts, total, err := p.posts.SearchPage(reqCtx, middleware.CurrentUser(ctx), params, page, pageSize)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	likes, err := p.posts.LikeCounts(reqCtx, postIDs(posts))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	payload := paginated(newPostList(posts, likes), page, pageSize, total)
	utils.CacheSetJSON(reqCtx, p.cache, cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, p.cacheTTL)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its comment threads and counts the view.
func (p *PostController) GetPost(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	principal := middleware.CurrentUser(ctx)
	post, err := p.posts.Get(reqCtx, principal, ctx.Param("key"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	likes, err := p.posts.LikeCounts(reqCtx, []uint{post.ID})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	thread, err := p.comments.ListForPost(reqCtx, principal, post.ID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if thread == nil {
		thread = []*models.Comment{}
	}
	resp := newPostResponse(post, likes[post.ID], thread)
	if principal != nil {
		liked, err := p.posts.LikedBy(reqCtx, post.ID, principal.ID)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		resp.Liked = &liked
	}
	utils.Success(ctx, resp)
}

// CreatePost publishes or drafts a post authored by the principal.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var in services.CreatePostInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	post, err := p.posts.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, newPostResponse(post, 0, nil))
}

// UpdatePost serves both PUT and PATCH; only the fields present are changed.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var in services.UpdatePostInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	reqCtx := ctx.Request.Context()
	post, err := p.posts.Update(reqCtx, middleware.CurrentUser(ctx), ctx.Param("key"), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	likes, err := p.posts.LikeCounts(reqCtx, []uint{post.ID})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newPostResponse(post, likes[post.ID], nil))
}

// DeletePost removes a post together with its comments and likes.
func (p *PostController) DeletePost(ctx *gin.Context) {
	if err := p.posts.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("key")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// LikePost toggles the principal's like.
func (p *PostController) LikePost(ctx *gin.Context) {
	liked, count, err := p.posts.ToggleLike(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("key"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"liked": liked, "like_count": count})
}

// ListDrafts returns the principal's own drafts, newest first.
func (p *PostController) ListDrafts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"), p.defaultPageSize, p.maxPageSize)
	reqCtx := ctx.Request.Context()
	posts, total, err := p.posts.ListDrafts(reqCtx, middleware.CurrentUser(ctx), page, pageSize)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	likes, err := p.posts.LikeCounts(reqCtx, postIDs(posts))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, paginated(newPostList(posts, likes), page, pageSize, total))
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
