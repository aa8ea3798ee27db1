package services

import (
	"context"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

func TestSearchPublishedDjango(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", true)
	fan := f.user(t, "DjangoFan", true)
	djangoCat := f.category(t, ada, "Django")
	pub := models.StatusPublished

	f.post(t, ada, CreatePostInput{Title: "Web tips", Status: pub, TagNames: "django, django-rest"})
	f.post(t, ada, CreatePostInput{Title: "Categorised", Status: pub, CategoryID: &djangoCat.ID})
	f.post(t, ada, CreatePostInput{Title: "Draft about django", Status: models.StatusDraft})
	f.post(t, fan, CreatePostInput{Title: "By the fan", Status: pub})
	f.post(t, ada, CreatePostInput{Title: "Shouting", Content: "I love DJANGO a lot", Status: pub})
	f.post(t, ada, CreatePostInput{Title: "Excerpted", Excerpt: "a django primer", Status: pub})
	f.post(t, ada, CreatePostInput{Title: "Unrelated", Content: "flask only", Status: pub})

	params, err := ParseSearchParams(url.Values{"status": {"published"}, "search": {"django"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	posts, err := f.posts.Search(context.Background(), nil, params)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := titles(posts)
	sort.Strings(got)
	want := []string{"By the fan", "Categorised", "Excerpted", "Shouting", "Web tips"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("search = %v, want %v", got, want)
	}
}

func TestSearchFilters(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", true)
	bob := f.user(t, "bob", true)
	backend := f.category(t, ada, "Backend")
	pub := models.StatusPublished
	long := strings.TrimSpace(strings.Repeat("word ", 1000))

	f.post(t, ada, CreatePostInput{Title: "Alpha", Status: pub, CategoryID: &backend.ID, TagNames: "Golang"})
	f.post(t, bob, CreatePostInput{Title: "Bravo", Status: pub, Content: long, TagNames: "rust"})
	f.post(t, ada, CreatePostInput{Title: "Charlie", TagNames: "go-kit, golang"})

	tests := []struct {
		name  string
		query url.Values
		want  string
	}{
		{name: "default newest first", query: url.Values{}, want: "Charlie|Bravo|Alpha"},
		{name: "author", query: url.Values{"author": {"1"}}, want: "Charlie|Alpha"},
		{name: "category", query: url.Values{"category": {"1"}}, want: "Alpha"},
		{name: "status", query: url.Values{"status": {"draft"}}, want: "Charlie"},
		{name: "tag substring any case", query: url.Values{"tags": {"GOLANG"}}, want: "Charlie|Alpha"},
		{name: "tag substring matches once", query: url.Values{"tags": {"go"}}, want: "Charlie|Alpha"},
		{name: "min read time", query: url.Values{"min_read_time": {"2"}}, want: "Bravo"},
		{name: "max read time alias", query: url.Values{"read_time__lte": {"1"}}, want: "Charlie|Alpha"},
		{name: "exact read time", query: url.Values{"read_time": {"5"}}, want: "Bravo"},
		{name: "order by title", query: url.Values{"ordering": {"title"}}, want: "Alpha|Bravo|Charlie"},
		{name: "order by title desc", query: url.Values{"ordering": {"-title"}}, want: "Charlie|Bravo|Alpha"},
		{name: "unknown ordering ignored", query: url.Values{"ordering": {"password,-id"}}, want: "Charlie|Bravo|Alpha"},
		{name: "ordering mixes known and unknown", query: url.Values{"ordering": {"bogus,read_time"}}, want: "Charlie|Alpha|Bravo"},
		{name: "and-combined", query: url.Values{"author": {"1"}, "status": {"published"}}, want: "Alpha"},
		{name: "literal percent", query: url.Values{"search": {"100%"}}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := ParseSearchParams(tt.query)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			posts, err := f.posts.Search(context.Background(), nil, params)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if got := strings.Join(titles(posts), "|"); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchDateRange(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", true)
	for _, p := range []struct {
		title string
		day   int
	}{{"March 1", 1}, {"March 2", 2}, {"March 3", 3}} {
		post := f.post(t, ada, CreatePostInput{Title: p.title})
		published := time.Date(2026, 3, p.day, 18, 30, 0, 0, time.UTC)
		if err := f.db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("published_date", published).Error; err != nil {
			t.Fatalf("backdate: %v", err)
		}
	}

	tests := []struct {
		query url.Values
		want  string
	}{
		{url.Values{"date_from": {"2026-03-02"}}, "March 3|March 2"},
		{url.Values{"date_to": {"2026-03-02"}}, "March 2|March 1"},
		{url.Values{"date_from": {"2026-03-02"}, "date_to": {"2026-03-02"}}, "March 2"},
		{url.Values{"published_date": {"2026-03-03"}}, "March 3"},
	}
	for _, tt := range tests {
		params, err := ParseSearchParams(tt.query)
		if err != nil {
			t.Fatalf("parse %v: %v", tt.query, err)
		}
		posts, err := f.posts.Search(context.Background(), nil, params)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if got := strings.Join(titles(posts), "|"); got != tt.want {
			t.Errorf("%v: got %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestSearchPage(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", true)
	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		f.post(t, ada, CreatePostInput{Title: title})
	}
	ctx := context.Background()

	page, total, err := f.posts.SearchPage(ctx, nil, SearchParams{}, 2, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if total != 5 || strings.Join(titles(page), "|") != "Three|Two" {
		t.Fatalf("page 2 = %v (total %d)", titles(page), total)
	}

	last, _, err := f.posts.SearchPage(ctx, nil, SearchParams{}, 3, 2)
	if err != nil || strings.Join(titles(last), "|") != "One" {
		t.Fatalf("page 3 = %v, %v", titles(last), err)
	}
}

func TestParseSearchParamsRejectsMalformedValues(t *testing.T) {
	_, err := ParseSearchParams(url.Values{
		"author":        {"abc"},
		"date_from":     {"03/01/2026"},
		"min_read_time": {"-1"},
		"status":        {"archived"},
		"category":      {"2"},
	})
	wantKind(t, err, utils.ErrValidation)
	got := strings.Join(err.(*utils.AppError).Fields, ",")
	if got != "author,date_from,min_read_time,status" {
		t.Fatalf("fields = %s", got)
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		fields []string
		want   string
	}{
		{nil, "posts.published_date DESC, posts.id DESC"},
		{[]string{"views"}, "posts.views ASC, posts.id DESC"},
		{[]string{"-views", "title", "-views"}, "posts.views DESC, posts.title ASC, posts.id DESC"},
		{[]string{"author_id"}, "posts.published_date DESC, posts.id DESC"},
	}
	for _, tt := range tests {
		if got := orderClause(tt.fields); got != tt.want {
			t.Errorf("orderClause(%v) = %q, want %q", tt.fields, got, tt.want)
		}
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern("50%_Off!"); got != "%50!%!_off!!%" {
		t.Fatalf("likePattern = %q", got)
	}
}

func TestSearchPunctuation(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", true)
	pub := models.StatusPublished
	ctx := context.Background()

	p := f.post(t, ada, CreatePostInput{
		Title:    "Don't Panic & Relax",
		Content:  "rock & roll isn't dead",
		Status:   pub,
		TagNames: "C&C, R&D",
	})
	if p.Title != "Don't Panic & Relax" || p.Slug != "don-t-panic-relax" {
		t.Fatalf("title %q slug %q", p.Title, p.Slug)
	}
	if got := tagNames(p.Tags); got != "C&C,R&D" {
		t.Fatalf("tags = %v", got)
	}
	f.post(t, ada, CreatePostInput{Title: `Is 1 < 2? "Yes"`, Status: pub})
	f.post(t, ada, CreatePostInput{Title: "Plain", Content: "rock and roll", Status: pub})

	tests := []struct {
		key, value string
		want       []string
	}{
		{key: "search", value: "don't", want: []string{"Don't Panic & Relax"}},
		{key: "search", value: "panic & relax", want: []string{"Don't Panic & Relax"}},
		{key: "search", value: "rock & roll", want: []string{"Don't Panic & Relax"}},
		{key: "search", value: "isn't", want: []string{"Don't Panic & Relax"}},
		{key: "search", value: "c&c", want: []string{"Don't Panic & Relax"}},
		{key: "search", value: `1 < 2? "yes"`, want: []string{`Is 1 < 2? "Yes"`}},
		{key: "tags", value: "c&c", want: []string{"Don't Panic & Relax"}},
		{key: "tags", value: "amp", want: []string{}},
	}
	for _, tt := range tests {
		params, err := ParseSearchParams(url.Values{tt.key: {tt.value}})
		if err != nil {
			t.Fatalf("parse %s=%q: %v", tt.key, tt.value, err)
		}
		posts, err := f.posts.Search(ctx, nil, params)
		if err != nil {
			t.Fatalf("search %s=%q: %v", tt.key, tt.value, err)
		}
		if got := titles(posts); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s=%q: got %v, want %v", tt.key, tt.value, got, tt.want)
		}
	}

	tag, err := f.tags.GetOrCreate(ctx, "C&C")
	if err != nil || tag.Name != "C&C" || tag.ID != p.Tags[0].ID {
		t.Fatalf("GetOrCreate(C&C) = %+v, %v", tag, err)
	}
}
