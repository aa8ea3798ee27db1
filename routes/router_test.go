package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T) *client {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { utils.PasswordCost = bcrypt.DefaultCost })

	dsn := filepath.Join(t.TempDir(), "router.db") + "?_pragma=busy_timeout(5000)"
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

	users := auth.NewGormUserStore(db)
	deps := Deps{
		Config: config.AppConfig{
			GinMode:            "test",
			RateLimitPerMinute: 600,
			AllowedOrigins:     []string{"*"},
			CacheTTLSeconds:    60,
			MaxReplyDepth:      32,
			DefaultPageSize:    10,
			MaxPageSize:        100,
		},
		DB:       db,
		Cache:    utils.NopCache{},
		Issuer:   auth.OpaqueIssuer{},
		Verifier: auth.FallbackVerifier{Users: users},
		Sessions: middleware.NewSessionManager(time.Hour),
	}
	return &client{t: t, handler: deps.Sessions.LoadAndSave(SetupRouter(deps))}
}

// do sends body as JSON; token and cookie are optional.
func (c *client) do(method, path, body, token string, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		c.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func (c *client) decode(raw json.RawMessage, v interface{}) {
	c.t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		c.t.Fatalf("decode %s: %v", raw, err)
	}
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "sessionid" {
			return ck
		}
	}
	return nil
}

type tokenReply struct {
	Token string `json:"token"`
	User  struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		IsStaff  bool   `json:"is_staff"`
	} `json:"user"`
}

func TestAccounts(t *testing.T) {
	c := newClient(t)

	w, env := c.do(http.MethodPost, "/accounts/register", `{"username":"ada","password1":"s3cret-pw","password2":"s3cret-pw"}`, "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", w.Code, w.Body.String())
	}
	var reg tokenReply
	c.decode(env.Data, &reg)
	if len(reg.Token) != 64 || reg.User.Username != "ada" || !reg.User.IsStaff {
		t.Fatalf("register reply = %+v", reg)
	}
	session := sessionCookie(w)
	if session == nil {
		t.Fatalf("register did not log in")
	}

	w, env = c.do(http.MethodPost, "/accounts/register", `{"username":"bob","password1":"a","password2":"b"}`, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("mismatch status = %d", w.Code)
	}
	w, _ = c.do(http.MethodPost, "/accounts/register", `{"username":"ada","password1":"x","password2":"x"}`, "", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}

	w, _ = c.do(http.MethodPost, "/accounts/login", `{"username":"ada","password":"wrong"}`, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", w.Code)
	}
	w, env = c.do(http.MethodPost, "/accounts/login", `{"username":"ada","password":"s3cret-pw"}`, "", nil)
	var login tokenReply
	c.decode(env.Data, &login)
	if w.Code != http.StatusOK || login.Token == reg.Token || login.User.ID != reg.User.ID {
		t.Fatalf("login = %d %+v", w.Code, login)
	}

	w, _ = c.do(http.MethodPost, "/accounts/token/refresh", "", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh without session = %d", w.Code)
	}
	w, env = c.do(http.MethodPost, "/accounts/token/refresh", "", "", session)
	var refreshed tokenReply
	c.decode(env.Data, &refreshed)
	if w.Code != http.StatusOK || refreshed.Token == "" || refreshed.Token == reg.Token {
		t.Fatalf("refresh = %d %+v", w.Code, refreshed)
	}

	w, env = c.do(http.MethodGet, "/accounts/me", "", "", session)
	if w.Code != http.StatusOK {
		t.Fatalf("me = %d", w.Code)
	}
	w, _ = c.do(http.MethodGet, "/accounts/me", "", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me = %d", w.Code)
	}

	w, _ = c.do(http.MethodPost, "/accounts/logout", "", "", session)
	if w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}
	w, _ = c.do(http.MethodPost, "/accounts/token/refresh", "", "", session)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout = %d", w.Code)
	}
}

type postReply struct {
	ID         uint   `json:"id"`
	Slug       string `json:"slug"`
	Author     string `json:"author"`
	Views      int    `json:"views"`
	LikeCount  int64  `json:"like_count"`
	ReadTime   int    `json:"read_time"`
	TagsDetail []struct {
		Name string `json:"name"`
	} `json:"tags_detail"`
	Comments *[]struct {
		Content string `json:"content"`
		Author  string `json:"author"`
		Replies []struct {
			Content string `json:"content"`
		} `json:"replies"`
	} `json:"comments"`
}

func TestPostLifecycle(t *testing.T) {
	c := newClient(t)
	w, env := c.do(http.MethodPost, "/accounts/register", `{"username":"ada","password1":"pw","password2":"pw"}`, "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d", w.Code)
	}
	var reg tokenReply
	c.decode(env.Data, &reg)

	w, _ = c.do(http.MethodPost, "/api/posts", `{"title":"Hello","content":"x"}`, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", w.Code)
	}
	w, env = c.do(http.MethodPost, "/api/posts", `{"content":"x"}`, reg.Token, nil)
	if w.Code != http.StatusBadRequest || !bytes.Contains(env.Data, []byte(`"title"`)) {
		t.Fatalf("missing title = %d %s", w.Code, env.Data)
	}

	w, env = c.do(http.MethodPost, "/api/posts",
		`{"title":"Hello World","content":"<p>hi there</p><script>x()</script>","status":"published","tag_names":"go, web"}`,
		reg.Token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var created postReply
	c.decode(env.Data, &created)
	if created.Slug != "hello-world" || created.Author != "ada" || len(created.TagsDetail) != 2 || created.ReadTime != 1 {
		t.Fatalf("created = %+v", created)
	}
	if created.Comments != nil {
		t.Fatalf("create reply carries comments")
	}

	w, env = c.do(http.MethodGet, "/api/posts?search=HELLO&status=published", "", "", nil)
	var page struct {
		Items      []postReply `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	c.decode(env.Data, &page)
	if w.Code != http.StatusOK || page.Pagination.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("list = %d %s", w.Code, env.Data)
	}
	w, _ = c.do(http.MethodGet, "/api/posts?author=abc", "", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter = %d", w.Code)
	}

	w, env = c.do(http.MethodPost, "/api/comments", `{"post":1,"content":"nice"}`, reg.Token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("comment = %d %s", w.Code, w.Body.String())
	}
	w, _ = c.do(http.MethodPost, "/api/comments/1/reply", `{"content":"thanks"}`, reg.Token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("reply = %d", w.Code)
	}

	w, env = c.do(http.MethodPost, "/api/posts/hello-world/like", "", reg.Token, nil)
	var like struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
	c.decode(env.Data, &like)
	if w.Code != http.StatusOK || !like.Liked || like.LikeCount != 1 {
		t.Fatalf("like = %d %+v", w.Code, like)
	}

	w, env = c.do(http.MethodGet, "/api/posts/1", "", "", nil)
	var detail postReply
	c.decode(env.Data, &detail)
	if w.Code != http.StatusOK || detail.Views != 1 || detail.LikeCount != 1 || detail.Comments == nil {
		t.Fatalf("detail = %d %s", w.Code, env.Data)
	}
	thread := *detail.Comments
	if len(thread) != 1 || thread[0].Author != "ada" || len(thread[0].Replies) != 1 || thread[0].Replies[0].Content != "thanks" {
		t.Fatalf("thread = %+v", thread)
	}

	w, _ = c.do(http.MethodPatch, "/api/posts/hello-world", `{"status":"archived"}`, reg.Token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status patch = %d", w.Code)
	}
	w, _ = c.do(http.MethodDelete, "/api/posts/hello-world", "", reg.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	w, _ = c.do(http.MethodGet, "/api/posts/hello-world", "", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleted post = %d", w.Code)
	}
	w, _ = c.do(http.MethodGet, "/api/nowhere", "", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", w.Code)
	}
}

func TestAnyTokenActsAsFirstActiveUser(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/accounts/register", `{"username":"first","password1":"pw","password2":"pw"}`, "", nil)
	c.do(http.MethodPost, "/accounts/register", `{"username":"second","password1":"pw","password2":"pw"}`, "", nil)

	w, env := c.do(http.MethodPost, "/api/categories", `{"name":"Go Tips"}`, "made-up", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category = %d %s", w.Code, w.Body.String())
	}
	w, env = c.do(http.MethodPost, "/api/posts", `{"title":"Owned","content":"words","category":1}`, "made-up", nil)
	var p postReply
	c.decode(env.Data, &p)
	if w.Code != http.StatusCreated || p.Author != "first" {
		t.Fatalf("post = %d %+v", w.Code, p)
	}

	w, env = c.do(http.MethodGet, "/api/categories", "", "", nil)
	var cats []struct {
		Slug string `json:"slug"`
	}
	c.decode(env.Data, &cats)
	if len(cats) != 1 || cats[0].Slug != "go-tips" {
		t.Fatalf("categories = %s", env.Data)
	}
}
