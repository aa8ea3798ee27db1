package services

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/cppla/aiblog/utils"
)

// NullableID tells an absent json field apart from an explicit null.
type NullableID struct {
	Set   bool
	Value *uint
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return utils.ValidationError("category must be an id or null", "category")
	}
	n.Value = &v
	return nil
}

// CreatePostInput is the writable field set of a new post.
type CreatePostInput struct {
	Title         string `json:"title" binding:"required,max=200"`
	Content       string `json:"content" binding:"required"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage string `json:"featured_image" binding:"omitempty,url,max=200"`
	CategoryID    *uint  `json:"category"`
	Status        string `json:"status" binding:"omitempty,oneof=draft published"`
	TagIDs        []uint `json:"tags"`
	// TagNames is a comma separated list of tag names, created on demand.
	TagNames string `json:"tag_names"`
}

// UpdatePostInput holds the fields to change; nil means "leave as is".
type UpdatePostInput struct {
	Title         *string    `json:"title" binding:"omitempty,max=200"`
	Content       *string    `json:"content"`
	Excerpt       *string    `json:"excerpt"`
	FeaturedImage *string    `json:"featured_image" binding:"omitempty,max=200"`
	Category      NullableID `json:"category"`
	Status        *string    `json:"status" binding:"omitempty,oneof=draft published"`
	// TagIDs, when present (even empty), replaces the tag set.
	TagIDs *[]uint `json:"tags"`
	// TagNames replaces the tag set when TagIDs is absent and is appended otherwise.
	TagNames *string `json:"tag_names"`
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=255"`
	Description string `json:"description"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Slug        *string `json:"slug" binding:"omitempty,max=255"`
	Description *string `json:"description"`
}

type TagInput struct {
	Name string `json:"name" binding:"required,max=100"`
	Slug string `json:"slug" binding:"omitempty,max=255"`
}

type UpdateTagInput struct {
	Name *string `json:"name" binding:"omitempty,max=100"`
	Slug *string `json:"slug" binding:"omitempty,max=255"`
}

// CommentInput creates a comment; approval is not writable by its author.
type CommentInput struct {
	PostID   uint   `json:"post" binding:"required"`
	ParentID *uint  `json:"parent"`
	Content  string `json:"content" binding:"required"`
}

type CommentContentInput struct {
	Content string `json:"content" binding:"required"`
}
