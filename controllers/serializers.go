package controllers

import (
	"time"

	"github.com/cppla/aiblog/models"
)

// UserBrief is returned next to a freshly issued token.
type UserBrief struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

type UserDetail struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostResponse is the public shape of a post. Author is the username;
// Category and Tags carry ids with the full records in the *_detail fields.
type PostResponse struct {
	ID             uint              `json:"id"`
	Title          string            `json:"title"`
	Slug           string            `json:"slug"`
	Content        string            `json:"content"`
	Excerpt        string            `json:"excerpt"`
	FeaturedImage  string            `json:"featured_image"`
	Author         string            `json:"author"`
	AuthorDetail   UserDetail        `json:"author_detail"`
	Category       *uint             `json:"category"`
	CategoryDetail *CategoryResponse `json:"category_detail"`
	Tags           []uint            `json:"tags"`
	TagsDetail     []TagResponse     `json:"tags_detail"`
	PublishedDate  time.Time         `json:"published_date"`
	UpdatedDate    time.Time         `json:"updated_date"`
	CreatedDate    time.Time         `json:"created_date"`
	Status         string            `json:"status"`
	ReadTime       int               `json:"read_time"`
	Views          int               `json:"views"`
	LikeCount      int64             `json:"like_count"`
	// Liked is set on detail reads by a known principal.
	Liked    *bool              `json:"liked,omitempty"`
	Comments *[]CommentResponse `json:"comments,omitempty"`
}

type CommentResponse struct {
	ID           uint              `json:"id"`
	Post         uint              `json:"post"`
	Author       string            `json:"author"`
	AuthorDetail UserDetail        `json:"author_detail"`
	Parent       *uint             `json:"parent"`
	Content      string            `json:"content"`
	CreatedDate  time.Time         `json:"created_date"`
	IsApproved   bool              `json:"is_approved"`
	Replies      []CommentResponse `json:"replies"`
}

func newUserBrief(u *models.User) UserBrief {
	return UserBrief{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

func newUserDetail(u *models.User) UserDetail {
	return UserDetail{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func newCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

func newCategoryList(categories []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, newCategoryResponse(&categories[i]))
	}
	return out
}

func newTagResponse(t *models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func newTagList(tags []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, newTagResponse(&tags[i]))
	}
	return out
}

// newPostResponse expects Author, Category and Tags to be loaded. Comments are
// rendered only when comments is non-nil.
func newPostResponse(p *models.Post, likes int64, comments []*models.Comment) PostResponse {
	resp := PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		Author:        p.Author.Username,
		AuthorDetail:  newUserDetail(&p.Author),
		Category:      p.CategoryID,
		Tags:          make([]uint, 0, len(p.Tags)),
		TagsDetail:    newTagList(p.Tags),
		PublishedDate: p.PublishedDate,
		UpdatedDate:   p.UpdatedDate,
		CreatedDate:   p.CreatedDate,
		Status:        p.Status,
		ReadTime:      p.ReadTime,
		Views:         p.Views,
		LikeCount:     likes,
	}
	if p.Category != nil {
		detail := newCategoryResponse(p.Category)
		resp.CategoryDetail = &detail
	}
	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, t.ID)
	}
	if comments != nil {
		tree := newCommentTree(comments)
		resp.Comments = &tree
	}
	return resp
}

func newPostList(posts []models.Post, likes map[uint]int64) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, newPostResponse(&posts[i], likes[posts[i].ID], nil))
	}
	return out
}

func newCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:           c.ID,
		Post:         c.PostID,
		Author:       c.Author.Username,
		AuthorDetail: newUserDetail(&c.Author),
		Parent:       c.ParentID,
		Content:      c.Content,
		CreatedDate:  c.CreatedDate,
		IsApproved:   c.IsApproved,
		Replies:      newCommentTree(c.Replies),
	}
}

func newCommentTree(comments []*models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, newCommentResponse(c))
	}
	return out
}
