package services

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

type fixture struct {
	db         *gorm.DB
	posts      *PostService
	categories *CategoryService
	tags       *TagService
	comments   *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "blog.db") + "?_pragma=busy_timeout(5000)"
	db, err := config.Open(sqlite.Open(dsn), "silent")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	useTickingClock(t)

	cache := utils.NopCache{}
	return &fixture{
		db:         db,
		posts:      NewPostService(db, cache),
		categories: NewCategoryService(db, cache),
		tags:       NewTagService(db, cache),
		comments:   NewCommentService(db, 3),
	}
}

// useTickingClock makes models.Now advance one second per call so creation
// order is reflected in timestamps.
func useTickingClock(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := models.Now
	models.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	t.Cleanup(func() { models.Now = prev })
}

func (f *fixture) user(t *testing.T, username string, active bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, IsActive: active}
	if err := f.db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, in CreatePostInput) *models.Post {
	t.Helper()
	if in.Content == "" {
		in.Content = "some words here"
	}
	p, err := f.posts.Create(context.Background(), author, in)
	if err != nil {
		t.Fatalf("create post %q: %v", in.Title, err)
	}
	return p
}

func (f *fixture) category(t *testing.T, by *models.User, name string) *models.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), by, CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func (f *fixture) tag(t *testing.T, by *models.User, name string) *models.Tag {
	t.Helper()
	tag, err := f.tags.Create(context.Background(), by, TagInput{Name: name})
	if err != nil {
		t.Fatalf("create tag %q: %v", name, err)
	}
	return tag
}

func tagNames(tags []models.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func wantKind(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func uintPtr(v uint) *uint     { return &v }
func strPtr(v string) *string  { return &v }
func idsPtr(v ...uint) *[]uint { return &v }
