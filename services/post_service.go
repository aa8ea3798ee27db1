package services

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// PostService owns post mutations, detail reads, likes and search.
type PostService struct {
	db    *gorm.DB
	cache utils.Cache
}

func NewPostService(db *gorm.DB, cache utils.Cache) *PostService {
	return &PostService{db: db, cache: cache}
}

// Create stores a new post authored by principal. Tags given by id are
// attached first, then tags named in TagNames are found or created and added.
func (s *PostService) Create(ctx context.Context, principal *models.User, in CreatePostInput) (*models.Post, error) {
	if err := auth.Authorize(principal, auth.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	post := models.Post{
		Title:         utils.SanitizePlain(in.Title),
		Content:       utils.Sanitize(in.Content),
		Excerpt:       utils.SanitizePlain(in.Excerpt),
		FeaturedImage: strings.TrimSpace(in.FeaturedImage),
		AuthorID:      principal.ID,
		CategoryID:    in.CategoryID,
		Status:        in.Status,
	}
	if err := checkPostText(post.Title, post.Content); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, post.CategoryID); err != nil {
			return err
		}
		byID, err := loadTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		byName, err := tagsNamed(tx, in.TagNames)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return err
		}
		if tags := mergeTags(byID, byName); len(tags) > 0 {
			return tx.Model(&post).Association("Tags").Append(tags)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, "create post", "post")
	}
	s.invalidate(ctx)
	return s.reload(ctx, post.ID)
}

// Update changes the given fields of a post owned by principal. The slug and
// read time keep the values assigned on first save.
func (s *PostService) Update(ctx context.Context, principal *models.User, key string, in UpdatePostInput) (*models.Post, error) {
	post, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ActionUpdate, post); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Title != nil {
		post.Title = utils.SanitizePlain(*in.Title)
	}
	if in.Content != nil {
		post.Content = utils.Sanitize(*in.Content)
	}
	if in.Excerpt != nil {
		post.Excerpt = utils.SanitizePlain(*in.Excerpt)
	}
	if in.FeaturedImage != nil {
		post.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
	}
	if in.Status != nil {
		post.Status = *in.Status
	}
	if in.Category.Set {
		post.CategoryID = in.Category.Value
		post.Category = nil
	}
	if err := checkPostText(post.Title, post.Content); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Category.Set {
			if err := checkCategory(tx, post.CategoryID); err != nil {
				return err
			}
		}
		err := tx.Model(post).
			Select("title", "content", "excerpt", "featured_image", "category_id", "status", "updated_date").
			Updates(post).Error
		if err != nil {
			return err
		}
		return applyTagUpdate(tx, post, in.TagIDs, in.TagNames)
	})
	if err != nil {
		return nil, wrapErr(err, "update post", "post")
	}
	s.invalidate(ctx)
	return s.reload(ctx, post.ID)
}

// applyTagUpdate replaces the tag set when ids are given (even none). Named
// tags replace the set when no ids were given and are appended otherwise.
func applyTagUpdate(tx *gorm.DB, post *models.Post, ids *[]uint, names *string) error {
	if ids == nil && names == nil {
		return nil
	}
	assoc := tx.Model(post).Association("Tags")
	if ids != nil {
		tags, err := loadTags(tx, *ids)
		if err != nil {
			return err
		}
		if err := replaceTags(assoc, tags); err != nil {
			return err
		}
	}
	if names == nil {
		return nil
	}
	named, err := tagsNamed(tx, *names)
	if err != nil {
		return err
	}
	if ids == nil {
		return replaceTags(assoc, named)
	}
	var current []models.Tag
	if err := assoc.Find(&current); err != nil {
		return err
	}
	extra := mergeTags(current, named)[len(current):]
	if len(extra) == 0 {
		return nil
	}
	return assoc.Append(extra)
}

// mergeTags appends the tags of extra not already in base.
func mergeTags(base, extra []models.Tag) []models.Tag {
	seen := make(map[uint]bool, len(base))
	for _, t := range base {
		seen[t.ID] = true
	}
	for _, t := range extra {
		if !seen[t.ID] {
			seen[t.ID] = true
			base = append(base, t)
		}
	}
	return base
}

func replaceTags(assoc *gorm.Association, tags []models.Tag) error {
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

// Delete removes a post owned by principal with its comments, likes and tag links.
func (s *PostService) Delete(ctx context.Context, principal *models.User, key string) error {
	post, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if err := auth.Authorize(principal, auth.ActionDelete, post); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", post.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		return wrapErr(err, "delete post", "post")
	}
	s.invalidate(ctx)
	return nil
}

// Get returns a post by id or slug and counts the read: views is incremented
// in the database on every call.
func (s *PostService) Get(ctx context.Context, principal *models.User, key string) (*models.Post, error) {
	post, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ActionRead, post); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return nil, wrapErr(err, "count view", "post")
	}
	post.Views++
	return post, nil
}

// ListDrafts pages through the principal's own drafts.
func (s *PostService) ListDrafts(ctx context.Context, principal *models.User, page, pageSize int) ([]models.Post, int64, error) {
	if principal == nil {
		return nil, 0, utils.AuthenticationFailure("authentication credentials were not provided", nil)
	}
	authorID := principal.ID
	params := SearchParams{AuthorID: &authorID, Status: models.StatusDraft, Ordering: []string{"-created_date"}}
	return s.SearchPage(ctx, principal, params, page, pageSize)
}

// ToggleLike flips principal's like on the post and reports the new state
// along with the post's like count.
func (s *PostService) ToggleLike(ctx context.Context, principal *models.User, key string) (bool, int64, error) {
	post, err := s.load(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if err := auth.Authorize(principal, auth.ActionLike, post); err != nil {
		return false, 0, err
	}

	var liked bool
	var count int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", post.ID, principal.ID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.PostLike{PostID: post.ID, UserID: principal.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&count).Error
	})
	if err != nil {
		return false, 0, wrapErr(err, "toggle like", "post")
	}
	s.invalidate(ctx)
	return liked, count, nil
}

// LikeCounts returns the number of likes per post id. Posts without likes are absent.
func (s *PostService) LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID uint
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(&models.PostLike{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", utils.UniqueUint(postIDs)).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(err, "count likes", "post")
	}
	for _, r := range rows {
		counts[r.PostID] = r.Total
	}
	return counts, nil
}

// LikedBy reports whether user likes the post.
func (s *PostService) LikedBy(ctx context.Context, postID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	if err != nil {
		return false, wrapErr(err, "load like", "post")
	}
	return n > 0, nil
}

func (s *PostService) load(ctx context.Context, key string) (*models.Post, error) {
	var post models.Post
	if err := findByKey(withPostDetails(s.db.WithContext(ctx)), &post, key); err != nil {
		return nil, wrapErr(err, "load post", "post")
	}
	return &post, nil
}

func (s *PostService) reload(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withPostDetails(s.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, wrapErr(err, "load post", "post")
	}
	return &post, nil
}

func (s *PostService) invalidate(ctx context.Context) {
	s.cache.InvalidateByPrefix(ctx, PostsCachePrefix)
}

func checkPostText(title, content string) error {
	var fields []string
	if title == "" {
		fields = append(fields, "title")
	}
	if strings.TrimSpace(content) == "" {
		fields = append(fields, "content")
	}
	if len(fields) > 0 {
		return utils.ValidationError("this field may not be blank", fields...)
	}
	return nil
}

func checkCategory(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return utils.ValidationError("category does not exist", "category")
	}
	return nil
}

// loadTags resolves tag ids; an unknown id is a validation error on "tags".
func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	ids = utils.UniqueUint(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, utils.ValidationError("unknown tag id", "tags")
	}
	return tags, nil
}

// tagsNamed finds or creates a tag for every name in a comma separated list.
func tagsNamed(tx *gorm.DB, names string) ([]models.Tag, error) {
	var tags []models.Tag
	seen := map[uint]bool{}
	for _, name := range utils.SplitCommaList(names) {
		tag, _, err := getOrCreateTag(tx, name)
		if err != nil {
			return nil, err
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			tags = append(tags, *tag)
		}
	}
	return tags, nil
}
