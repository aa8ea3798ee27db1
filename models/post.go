package models

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/slug"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	// WordsPerMinute is the reading speed used for ReadTime.
	WordsPerMinute = 200
)

// Post is a blog article owned by its author.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Slug          string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Excerpt       string    `gorm:"type:text" json:"excerpt"`
	FeaturedImage string    `gorm:"size:200" json:"featured_image"`
	AuthorID      uint      `gorm:"index;not null" json:"author_id"`
	Author        User      `gorm:"foreignKey:AuthorID" json:"-"`
	CategoryID    *uint     `gorm:"index" json:"category_id"`
	Category      *Category `gorm:"foreignKey:CategoryID" json:"-"`
	Tags          []Tag     `gorm:"many2many:post_tags" json:"-"`
	Status        string    `gorm:"size:10;not null;index" json:"status"`
	PublishedDate time.Time `gorm:"not null;index" json:"published_date"`
	CreatedDate   time.Time `gorm:"not null" json:"created_date"`
	UpdatedDate   time.Time `gorm:"not null" json:"updated_date"`
	ReadTime      int       `gorm:"not null;default:0" json:"read_time"`
	Views         int       `gorm:"not null;default:0" json:"views"`
}

// PostLike records that a user likes a post. The composite key makes a like unique.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string {
	return "post_likes"
}

// EstimateReadTime returns max(1, round(words/200)) minutes, rounding halves to even.
func EstimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.RoundToEven(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// EnsureDerived fills the slug and read time. Both are assigned once: a post
// that already has them keeps them even after its title or content changes.
func (p *Post) EnsureDerived() {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Make(p.Title, "post")
	}
	if p.ReadTime == 0 {
		p.ReadTime = EstimateReadTime(p.Content)
	}
}

func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.EnsureDerived()
	if p.Status == "" {
		p.Status = StatusDraft
	}
	p.UpdatedDate = Now()
	return nil
}

// BeforeCreate sets the immutable creation timestamps.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	now := Now()
	if p.PublishedDate.IsZero() {
		p.PublishedDate = now
	}
	if p.CreatedDate.IsZero() {
		p.CreatedDate = now
	}
	return nil
}

func (p *Post) OwnerID() uint { return p.AuthorID }
