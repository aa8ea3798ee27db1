package services

import (
	"context"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

const dateLayout = "2006-01-02"

// orderableFields maps the public ordering names onto columns.
var orderableFields = map[string]string{
	"published_date": "posts.published_date",
	"created_date":   "posts.created_date",
	"title":          "posts.title",
	"views":          "posts.views",
	"read_time":      "posts.read_time",
}

// SearchParams is the flat filter set accepted by the post listing. Every
// field is optional; set filters are ANDed, Search is ORed across the text columns.
type SearchParams struct {
	AuthorID   *uint
	CategoryID *uint
	Status     string
	// PublishedOn matches the whole UTC day.
	PublishedOn *time.Time
	// DateFrom and DateTo bound the published date, both days inclusive.
	DateFrom    *time.Time
	DateTo      *time.Time
	ReadTime    *int
	MinReadTime *int
	MaxReadTime *int
	// Tags is a case-insensitive substring of a tag name.
	Tags   string
	Search string
	// Ordering lists field names, "-" prefixed for descending. Unknown names are ignored.
	Ordering []string
}

// ParseSearchParams reads SearchParams from a query string. Malformed numbers
// and dates are reported as a ValidationError naming every bad parameter.
func ParseSearchParams(q url.Values) (SearchParams, error) {
	var p SearchParams
	var bad []string

	parseID := func(key string) *uint {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			bad = append(bad, key)
			return nil
		}
		id := uint(v)
		return &id
	}
	parseInt := func(key string) *int {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			bad = append(bad, key)
			return nil
		}
		return &v
	}
	parseDate := func(key string) *time.Time {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			bad = append(bad, key)
			return nil
		}
		return &d
	}

	p.AuthorID = parseID("author")
	p.CategoryID = parseID("category")
	p.PublishedOn = parseDate("published_date")
	p.DateFrom = parseDate("date_from")
	p.DateTo = parseDate("date_to")
	p.ReadTime = parseInt("read_time")
	p.MinReadTime = firstInt(parseInt("min_read_time"), parseInt("read_time__gte"))
	p.MaxReadTime = firstInt(parseInt("max_read_time"), parseInt("read_time__lte"))

	p.Status = strings.TrimSpace(q.Get("status"))
	if p.Status != "" && p.Status != models.StatusDraft && p.Status != models.StatusPublished {
		bad = append(bad, "status")
	}
	p.Tags = strings.TrimSpace(q.Get("tags"))
	p.Search = strings.TrimSpace(q.Get("search"))
	if raw := strings.TrimSpace(q.Get("ordering")); raw != "" {
		p.Ordering = utils.SplitCommaList(raw)
	}

	if len(bad) > 0 {
		return p, utils.ValidationError("invalid query parameters", bad...)
	}
	return p, nil
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// Search returns every post matching p, ordered. Listing is public; the
// principal is passed through the gate like every other operation.
func (s *PostService) Search(ctx context.Context, principal *models.User, p SearchParams) ([]models.Post, error) {
	if err := auth.Authorize(principal, auth.ActionList, nil); err != nil {
		return nil, err
	}
	var posts []models.Post
	err := withPostDetails(s.compose(ctx, p)).Order(orderClause(p.Ordering)).Find(&posts).Error
	if err != nil {
		return nil, wrapErr(err, "search posts", "post")
	}
	return posts, nil
}

// SearchPage is Search restricted to one page, plus the total match count.
func (s *PostService) SearchPage(ctx context.Context, principal *models.User, p SearchParams, page, pageSize int) ([]models.Post, int64, error) {
	if err := auth.Authorize(principal, auth.ActionList, nil); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	var total int64
	if err := s.compose(ctx, p).Count(&total).Error; err != nil {
		return nil, 0, wrapErr(err, "count posts", "post")
	}
	var posts []models.Post
	err := withPostDetails(s.compose(ctx, p)).
		Order(orderClause(p.Ordering)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, wrapErr(err, "search posts", "post")
	}
	return posts, total, nil
}

// compose builds the filtered query. Related-table predicates are subqueries
// on posts.id, so a post matching several tags is still returned once.
func (s *PostService) compose(ctx context.Context, p SearchParams) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Post{})

	if p.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *p.AuthorID)
	}
	if p.CategoryID != nil {
		q = q.Where("posts.category_id = ?", *p.CategoryID)
	}
	if p.Status != "" {
		q = q.Where("posts.status = ?", p.Status)
	}
	if p.PublishedOn != nil {
		q = q.Where("posts.published_date >= ? AND posts.published_date < ?", *p.PublishedOn, p.PublishedOn.AddDate(0, 0, 1))
	}
	if p.DateFrom != nil {
		q = q.Where("posts.published_date >= ?", *p.DateFrom)
	}
	if p.DateTo != nil {
		q = q.Where("posts.published_date < ?", p.DateTo.AddDate(0, 0, 1))
	}
	if p.ReadTime != nil {
		q = q.Where("posts.read_time = ?", *p.ReadTime)
	}
	if p.MinReadTime != nil {
		q = q.Where("posts.read_time >= ?", *p.MinReadTime)
	}
	if p.MaxReadTime != nil {
		q = q.Where("posts.read_time <= ?", *p.MaxReadTime)
	}
	if p.Tags != "" {
		q = q.Where("posts.id IN (?)", s.postsTaggedLike(likePattern(p.Tags)))
	}
	if p.Search != "" {
		pattern := likePattern(p.Search)
		// content is stored as sanitized HTML, so "&" and quotes are entities there.
		escaped := likePattern(html.EscapeString(p.Search))
		authors := s.db.Model(&models.User{}).Select("id").Where("LOWER(username) LIKE ? ESCAPE '!'", pattern)
		categories := s.db.Model(&models.Category{}).Select("id").Where("LOWER(name) LIKE ? ESCAPE '!'", pattern)
		q = q.Where(
			"(LOWER(posts.title) LIKE ? ESCAPE '!' OR LOWER(posts.content) LIKE ? ESCAPE '!' OR LOWER(posts.content) LIKE ? ESCAPE '!'"+
				" OR LOWER(posts.excerpt) LIKE ? ESCAPE '!' OR posts.author_id IN (?) OR posts.category_id IN (?) OR posts.id IN (?))",
			pattern, pattern, escaped, pattern, authors, categories, s.postsTaggedLike(pattern),
		)
	}
	return q
}

func (s *PostService) postsTaggedLike(pattern string) *gorm.DB {
	return s.db.Table("post_tags").
		Select("post_tags.post_id").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("LOWER(tags.name) LIKE ? ESCAPE '!'", pattern)
}

func withPostDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").Preload("Category").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.name ASC")
	})
}

// orderClause turns the requested fields into ORDER BY, defaulting to newest
// published first. posts.id breaks ties so pages are stable.
func orderClause(fields []string) string {
	var parts []string
	seen := map[string]bool{}
	for _, f := range fields {
		desc := strings.HasPrefix(f, "-")
		name := strings.TrimPrefix(f, "-")
		col, ok := orderableFields[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		if desc {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "posts.published_date DESC")
	}
	return strings.Join(append(parts, "posts.id DESC"), ", ")
}

// likePattern lowercases term and escapes LIKE wildcards with '!'.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
