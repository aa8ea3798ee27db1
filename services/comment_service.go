package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// CommentService manages comments and assembles reply threads.
type CommentService struct {
	db       *gorm.DB
	maxDepth int
}

// NewCommentService returns a service whose threads nest at most maxDepth levels of replies.
func NewCommentService(db *gorm.DB, maxDepth int) *CommentService {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &CommentService{db: db, maxDepth: maxDepth}
}

// ListForPost returns the post's top-level comments, newest first, each
// carrying its reply tree.
func (s *CommentService) ListForPost(ctx context.Context, principal *models.User, postID uint) ([]*models.Comment, error) {
	if err := auth.Authorize(principal, auth.ActionList, nil); err != nil {
		return nil, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return nil, wrapErr(err, "load post", "post")
	}
	if n == 0 {
		return nil, utils.NotFound("post not found")
	}
	var comments []*models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_date DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, wrapErr(err, "list comments", "comment")
	}
	return BuildThread(comments, s.maxDepth), nil
}

// Get loads one comment with its author.
func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, wrapErr(err, "load comment", "comment")
	}
	return &comment, nil
}

// Create adds a comment by principal. A parent, when given, must belong to the same post.
func (s *CommentService) Create(ctx context.Context, principal *models.User, in CommentInput) (*models.Comment, error) {
	if err := auth.Authorize(principal, auth.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", in.PostID).Count(&n).Error; err != nil {
		return nil, wrapErr(err, "load post", "post")
	}
	if n == 0 {
		return nil, utils.ValidationError("post does not exist", "post")
	}
	if in.ParentID != nil {
		parent, err := s.Get(ctx, *in.ParentID)
		if utils.KindOf(err) == utils.KindNotFound || (err == nil && parent.PostID != in.PostID) {
			return nil, utils.ValidationError("parent must be a comment on the same post", "parent")
		}
		if err != nil {
			return nil, err
		}
	}
	return s.insert(ctx, principal, in.PostID, in.ParentID, in.Content)
}

// Reply answers the comment parentID on its post.
func (s *CommentService) Reply(ctx context.Context, principal *models.User, parentID uint, in CommentContentInput) (*models.Comment, error) {
	if err := auth.Authorize(principal, auth.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	parent, err := s.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, principal, parent.PostID, &parent.ID, in.Content)
}

func (s *CommentService) insert(ctx context.Context, principal *models.User, postID uint, parentID *uint, content string) (*models.Comment, error) {
	comment := models.Comment{
		PostID:     postID,
		AuthorID:   principal.ID,
		ParentID:   parentID,
		Content:    utils.Sanitize(content),
		IsApproved: true,
	}
	if comment.Content == "" {
		return nil, utils.ValidationError("this field may not be blank", "content")
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&comment).Error; err != nil {
		return nil, wrapErr(err, "create comment", "comment")
	}
	comment.Author = *principal
	return &comment, nil
}

// Update edits the text of principal's own comment.
func (s *CommentService) Update(ctx context.Context, principal *models.User, id uint, in CommentContentInput) (*models.Comment, error) {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ActionUpdate, comment); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	content := utils.Sanitize(in.Content)
	if content == "" {
		return nil, utils.ValidationError("this field may not be blank", "content")
	}
	if err := s.db.WithContext(ctx).Model(comment).UpdateColumn("content", content).Error; err != nil {
		return nil, wrapErr(err, "update comment", "comment")
	}
	comment.Content = content
	return comment, nil
}

// Delete removes principal's own comment and every reply beneath it.
func (s *CommentService) Delete(ctx context.Context, principal *models.User, id uint) error {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(principal, auth.ActionDelete, comment); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{comment.ID}
		frontier := ids
		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	return wrapErr(err, "delete comment", "comment")
}

// BuildThread links comments (ordered newest first) into reply trees and
// returns the top-level ones. Replies nested more than maxDepth levels deep
// are flattened onto level maxDepth under their nearest shallower ancestor.
// Comments whose parent is not in the list are dropped.
func BuildThread(comments []*models.Comment, maxDepth int) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(comments))
	for _, c := range comments {
		c.Replies = nil
		byID[c.ID] = c
	}

	// depth is 0 for top-level comments and is filled in by walking up the
	// parent chain; orphans and cycles get a negative depth.
	depth := make(map[uint]int, len(comments))
	depthOf := func(c *models.Comment) int {
		var chain []*models.Comment
		d := 0
		for cur := c; cur != nil; {
			if known, ok := depth[cur.ID]; ok {
				d = known
				break
			}
			chain = append(chain, cur)
			if cur.ParentID == nil {
				d = -1
				break
			}
			parent, ok := byID[*cur.ParentID]
			if !ok || len(chain) > len(comments) {
				d = -2 // orphan or cycle
				break
			}
			cur = parent
		}
		for i := len(chain) - 1; i >= 0; i-- {
			if d < -1 {
				depth[chain[i].ID] = d
				continue
			}
			d++
			depth[chain[i].ID] = d
		}
		return depth[c.ID]
	}

	var roots []*models.Comment
	for _, c := range comments {
		d := depthOf(c)
		switch {
		case d < 0:
			continue
		case d == 0:
			roots = append(roots, c)
			continue
		}
		parent := byID[*c.ParentID]
		for depth[parent.ID] >= maxDepth {
			parent = byID[*parent.ParentID]
		}
		parent.Replies = append(parent.Replies, c)
	}
	return roots
}
