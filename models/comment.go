package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reader comment on a post. A nil ParentID marks a top-level comment.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"index;not null" json:"post"`
	AuthorID    uint      `gorm:"index;not null" json:"author"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"-"`
	ParentID    *uint     `gorm:"index" json:"parent"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedDate time.Time `gorm:"not null;index" json:"created_date"`
	IsApproved  bool      `gorm:"not null" json:"is_approved"`

	// Replies is assembled in memory when a thread is built.
	Replies []*Comment `gorm:"-" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedDate.IsZero() {
		c.CreatedDate = Now()
	}
	return nil
}

func (c *Comment) OwnerID() uint { return c.AuthorID }
