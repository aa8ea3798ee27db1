package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// CommentController exposes threaded comments.
type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// ListComments returns the threads of the post named by ?post=ID.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, err := strconv.ParseUint(ctx.Query("post"), 10, 64)
	if err != nil {
		utils.Fail(ctx, utils.ValidationError("a numeric post id is required", "post"))
		return
	}
	thread, err := c.comments.ListForPost(ctx.Request.Context(), middleware.CurrentUser(ctx), uint(postID))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newCommentTree(thread))
}

func (c *CommentController) CreateComment(ctx *gin.Context) {
	var in services.CommentInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	comment, err := c.comments.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, newCommentResponse(comment))
}

// Reply answers the comment in the path on the same post.
func (c *CommentController) Reply(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.NotFound("comment not found"))
		return
	}
	var in services.CommentContentInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	comment, err := c.comments.Reply(ctx.Request.Context(), middleware.CurrentUser(ctx), id, in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, newCommentResponse(comment))
}

func (c *CommentController) UpdateComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.NotFound("comment not found"))
		return
	}
	var in services.CommentContentInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	comment, err := c.comments.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), id, in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newCommentResponse(comment))
}

// DeleteComment removes the comment and all replies beneath it.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.NotFound("comment not found"))
		return
	}
	if err := c.comments.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
