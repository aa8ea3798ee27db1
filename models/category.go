package models

import (
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/slug"
)

// Category groups posts. Deleting a category leaves its posts uncategorized.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Slug        string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

// EnsureSlug derives the slug from the name when it is blank.
func (c *Category) EnsureSlug() {
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = slug.Make(c.Name, "category")
	}
}

func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.EnsureSlug()
	return nil
}

// OwnerID is zero: categories are shared and have no author.
func (c *Category) OwnerID() uint { return 0 }
