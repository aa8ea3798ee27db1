package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// TaxonomyController serves categories and tags. Both lists are small and cached whole.
type TaxonomyController struct {
	categories *services.CategoryService
	tags       *services.TagService
	cache      utils.Cache
	cacheTTL   time.Duration
}

func NewTaxonomyController(categories *services.CategoryService, tags *services.TagService, cache utils.Cache, cfg config.AppConfig) *TaxonomyController {
	return &TaxonomyController{
		categories: categories,
		tags:       tags,
		cache:      cache,
		cacheTTL:   time.Duration(cfg.CacheTTLSeconds) * time.Second,
	}
}

func (t *TaxonomyController) ListCategories(ctx *gin.Context) {
	key := services.CategoriesCachePrefix + "list"
	reqCtx := ctx.Request.Context()
	if b, ok := t.cache.GetBytes(reqCtx, key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	categories, err := t.categories.List(reqCtx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	items := newCategoryList(categories)
	utils.CacheSetJSON(reqCtx, t.cache, key, utils.JSONResponse{Code: 0, Message: "success", Data: items}, t.cacheTTL)
	utils.Success(ctx, items)
}

func (t *TaxonomyController) GetCategory(ctx *gin.Context) {
	category, err := t.categories.Get(ctx.Request.Context(), ctx.Param("key"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newCategoryResponse(category))
}

func (t *TaxonomyController) CreateCategory(ctx *gin.Context) {
	var in services.CategoryInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	category, err := t.categories.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, newCategoryResponse(category))
}

func (t *TaxonomyController) UpdateCategory(ctx *gin.Context) {
	var in services.UpdateCategoryInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	category, err := t.categories.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("key"), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newCategoryResponse(category))
}

// DeleteCategory removes the category; its posts become uncategorized.
func (t *TaxonomyController) DeleteCategory(ctx *gin.Context) {
	if err := t.categories.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("key")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}

func (t *TaxonomyController) ListTags(ctx *gin.Context) {
	key := services.TagsCachePrefix + "list"
	reqCtx := ctx.Request.Context()
	if b, ok := t.cache.GetBytes(reqCtx, key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	tags, err := t.tags.List(reqCtx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	items := newTagList(tags)
	utils.CacheSetJSON(reqCtx, t.cache, key, utils.JSONResponse{Code: 0, Message: "success", Data: items}, t.cacheTTL)
	utils.Success(ctx, items)
}

func (t *TaxonomyController) GetTag(ctx *gin.Context) {
	tag, err := t.tags.Get(ctx.Request.Context(), ctx.Param("key"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newTagResponse(tag))
}

func (t *TaxonomyController) CreateTag(ctx *gin.Context) {
	var in services.TagInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	tag, err := t.tags.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, newTagResponse(tag))
}

func (t *TaxonomyController) UpdateTag(ctx *gin.Context) {
	var in services.UpdateTagInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Fail(ctx, err)
		return
	}
	tag, err := t.tags.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("key"), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, newTagResponse(tag))
}

// DeleteTag removes the tag from every post and then the tag itself.
func (t *TaxonomyController) DeleteTag(ctx *gin.Context) {
	if err := t.tags.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("key")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "tag deleted"})
}
