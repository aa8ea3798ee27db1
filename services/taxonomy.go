package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/slug"
	"github.com/cppla/aiblog/utils"
)

// CategoryService manages categories. Categories have no author, so any
// principal may change them.
type CategoryService struct {
	db    *gorm.DB
	cache utils.Cache
}

func NewCategoryService(db *gorm.DB, cache utils.Cache) *CategoryService {
	return &CategoryService{db: db, cache: cache}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, wrapErr(err, "list categories", "category")
	}
	return categories, nil
}

// Get loads a category by id or slug.
func (s *CategoryService) Get(ctx context.Context, key string) (*models.Category, error) {
	var category models.Category
	if err := findByKey(s.db.WithContext(ctx), &category, key); err != nil {
		return nil, wrapErr(err, "load category", "category")
	}
	return &category, nil
}

func (s *CategoryService) Create(ctx context.Context, principal *models.User, in CategoryInput) (*models.Category, error) {
	if err := auth.Authorize(principal, auth.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	category := models.Category{
		Name:        utils.SanitizePlain(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: utils.SanitizePlain(in.Description),
	}
	if err := checkNameAndSlug(category.Name, category.Slug); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, wrapErr(err, "create category", "category")
	}
	s.invalidate(ctx)
	return &category, nil
}

// Update changes the given fields. A slug set to "" is derived again from the name.
func (s *CategoryService) Update(ctx context.Context, principal *models.User, key string, in UpdateCategoryInput) (*models.Category, error) {
	category, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ActionUpdate, category); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Name != nil {
		category.Name = utils.SanitizePlain(*in.Name)
	}
	if in.Slug != nil {
		category.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Description != nil {
		category.Description = utils.SanitizePlain(*in.Description)
	}
	if err := checkNameAndSlug(category.Name, category.Slug); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, wrapErr(err, "update category", "category")
	}
	s.invalidate(ctx)
	return category, nil
}

// Delete removes the category and leaves its posts uncategorized.
func (s *CategoryService) Delete(ctx context.Context, principal *models.User, key string) error {
	category, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := auth.Authorize(principal, auth.ActionDelete, category); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", category.ID).UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return wrapErr(err, "delete category", "category")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	s.cache.InvalidateByPrefix(ctx, CategoriesCachePrefix)
	s.cache.InvalidateByPrefix(ctx, PostsCachePrefix)
}

// TagService manages tags, including on-demand creation from free-text names.
type TagService struct {
	db    *gorm.DB
	cache utils.Cache
}

func NewTagService(db *gorm.DB, cache utils.Cache) *TagService {
	return &TagService{db: db, cache: cache}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&tags).Error; err != nil {
		return nil, wrapErr(err, "list tags", "tag")
	}
	return tags, nil
}

// Get loads a tag by id or slug.
func (s *TagService) Get(ctx context.Context, key string) (*models.Tag, error) {
	var tag models.Tag
	if err := findByKey(s.db.WithContext(ctx), &tag, key); err != nil {
		return nil, wrapErr(err, "load tag", "tag")
	}
	return &tag, nil
}

func (s *TagService) Create(ctx context.Context, principal *models.User, in TagInput) (*models.Tag, error) {
	if err := auth.Authorize(principal, auth.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	tag := models.Tag{Name: utils.SanitizePlain(in.Name), Slug: strings.TrimSpace(in.Slug)}
	if err := checkNameAndSlug(tag.Name, tag.Slug); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, wrapErr(err, "create tag", "tag")
	}
	s.invalidate(ctx)
	return &tag, nil
}

func (s *TagService) Update(ctx context.Context, principal *models.User, key string, in UpdateTagInput) (*models.Tag, error) {
	tag, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ActionUpdate, tag); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Name != nil {
		tag.Name = utils.SanitizePlain(*in.Name)
	}
	if in.Slug != nil {
		tag.Slug = strings.TrimSpace(*in.Slug)
	}
	if err := checkNameAndSlug(tag.Name, tag.Slug); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(tag).Error; err != nil {
		return nil, wrapErr(err, "update tag", "tag")
	}
	s.invalidate(ctx)
	return tag, nil
}

// Delete removes the tag and detaches it from every post.
func (s *TagService) Delete(ctx context.Context, principal *models.User, key string) error {
	tag, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := auth.Authorize(principal, auth.ActionDelete, tag); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
	if err != nil {
		return wrapErr(err, "delete tag", "tag")
	}
	s.invalidate(ctx)
	return nil
}

// GetOrCreate returns the tag called name, creating it when neither the name
// nor its slug is taken yet.
func (s *TagService) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	tag, created, err := getOrCreateTag(s.db.WithContext(ctx), name)
	if err != nil {
		return nil, err
	}
	if created {
		s.invalidate(ctx)
	}
	return tag, nil
}

func (s *TagService) invalidate(ctx context.Context) {
	s.cache.InvalidateByPrefix(ctx, TagsCachePrefix)
	s.cache.InvalidateByPrefix(ctx, PostsCachePrefix)
}

// getOrCreateTag looks the tag up by name, then by slug, and otherwise
// inserts it. The insert runs in its own savepoint: when a concurrent
// request wins the race on the unique slug, the loser reads the winner's row.
func getOrCreateTag(db *gorm.DB, name string) (*models.Tag, bool, error) {
	name = utils.SanitizePlain(name)
	if name == "" {
		return nil, false, utils.ValidationError("tag name cannot be empty", "tag_names")
	}
	db = db.Session(&gorm.Session{})

	var tag models.Tag
	err := db.Where("name = ?", name).Order("id ASC").First(&tag).Error
	if err == nil {
		return &tag, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, wrapErr(err, "load tag", "tag")
	}

	tagSlug := slug.Make(name, "tag")
	if err := db.Where("slug = ?", tagSlug).First(&tag).Error; err == nil {
		return &tag, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, wrapErr(err, "load tag", "tag")
	}

	tag = models.Tag{Name: name, Slug: tagSlug}
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&tag).Error
	})
	if err == nil {
		return &tag, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, wrapErr(err, "create tag", "tag")
	}
	tag = models.Tag{}
	if err := db.Where("slug = ?", tagSlug).First(&tag).Error; err != nil {
		return nil, false, wrapErr(err, "load tag", "tag")
	}
	return &tag, false, nil
}

func checkNameAndSlug(name, s string) error {
	if name == "" {
		return utils.ValidationError("name cannot be empty", "name")
	}
	if s != "" && !slug.Valid(s) {
		return utils.ValidationError("slug may contain only lowercase letters, digits and single hyphens", "slug")
	}
	return nil
}
