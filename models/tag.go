package models

import (
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/slug"
)

// Tag labels posts; tags are created on demand from free-text names.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;index" json:"name"`
	Slug string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
}

// EnsureSlug derives the slug from the name when it is blank.
func (t *Tag) EnsureSlug() {
	if strings.TrimSpace(t.Slug) == "" {
		t.Slug = slug.Make(t.Name, "tag")
	}
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	t.EnsureSlug()
	return nil
}

func (t *Tag) OwnerID() uint { return 0 }
