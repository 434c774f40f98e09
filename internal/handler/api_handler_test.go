package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fullblog/internal/config"
	"github.com/fullblog/internal/db"
	"github.com/fullblog/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := config.AppConfig{
		UploadDir:     t.TempDir(),
		UploadURLPath: "/static/attachments",
		SiteBaseURL:   "http://blog.example.com",
		SiteName:      "FullBlog",
	}
	return NewAPI(gdb, cfg)
}

func seedPost(t *testing.T, api *API, name, title, body, author, categories string) {
	t.Helper()
	post, err := service.NewBlogPost(api.DB(), name, 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	post.UpdateFields(map[string]interface{}{
		"title":      title,
		"body":       body,
		"author":     author,
		"categories": categories,
	})
	warnings, err := post.Save(author, "", false)
	if err != nil {
		t.Fatalf("save post: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("seed warnings: %v", warnings)
	}
}

func TestGetPostsJSONFiltersByCategory(t *testing.T) {
	api := setupTestAPI(t)
	seedPost(t, api, "go-post", "Go", "body", "alice", "go tools")
	seedPost(t, api, "other", "Other", "body", "bob", "golang")

	req := httptest.NewRequest(http.MethodGet, "/api/posts?category=go", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.GetPostsJSON(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var payload struct {
		Posts []service.PostRow `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Posts) != 1 || payload.Posts[0].Name != "go-post" {
		t.Fatalf("expected exact category match only, got %+v", payload.Posts)
	}
}

func TestGetPostJSONNotFound(t *testing.T) {
	api := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/missing", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "name", Value: "missing"}}

	api.GetPostJSON(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestGetPostJSONReturnsCurrentVersion(t *testing.T) {
	api := setupTestAPI(t)
	seedPost(t, api, "versioned", "V1", "first", "alice", "")

	post, err := service.NewBlogPost(api.DB(), "versioned", 0)
	if err != nil {
		t.Fatalf("load post: %v", err)
	}
	post.UpdateFields(map[string]interface{}{"title": "V2", "body": "second"})
	if _, err := post.Save("alice", "rewrite", false); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts/versioned", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "name", Value: "versioned"}}

	api.GetPostJSON(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var payload struct {
		Version  int    `json:"version"`
		Title    string `json:"title"`
		Versions []int  `json:"versions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Version != 2 || payload.Title != "V2" {
		t.Fatalf("expected current version 2, got %+v", payload)
	}
	if len(payload.Versions) != 2 {
		t.Fatalf("expected full version history, got %v", payload.Versions)
	}
}

func TestSearchJSONRequiresQuery(t *testing.T) {
	api := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.SearchJSON(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestAddCommentRedirectsOnSuccess(t *testing.T) {
	api := setupTestAPI(t)
	seedPost(t, api, "commented", "Commented", "body", "alice", "")

	form := url.Values{"comment": {"nice post"}, "author": {"bob"}}
	req := httptest.NewRequest(http.MethodPost, "/post/commented/comments", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "name", Value: "commented"}}

	api.AddComment(c)

	// The redirect has no body, so the status only reaches gin's writer.
	if c.Writer.Status() != http.StatusFound {
		t.Fatalf("expected redirect, got %d: %s", c.Writer.Status(), w.Body.String())
	}
	if location := c.Writer.Header().Get("Location"); !strings.HasPrefix(location, "/post/commented#comment-") {
		t.Fatalf("unexpected redirect target %q", location)
	}

	comments, err := service.GetComments(api.DB(), "commented", nil, nil)
	if err != nil {
		t.Fatalf("get comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Number != 1 {
		t.Fatalf("expected stored comment number 1, got %+v", comments)
	}
}

func TestDeletePostRemovesAllVersions(t *testing.T) {
	api := setupTestAPI(t)
	seedPost(t, api, "doomed", "Doomed", "body", "alice", "")

	req := httptest.NewRequest(http.MethodDelete, "/admin/api/posts/doomed", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "name", Value: "doomed"}}

	api.DeletePost(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	post, err := service.NewBlogPost(api.DB(), "doomed", 0)
	if err != nil {
		t.Fatalf("reload post: %v", err)
	}
	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected post deleted, got versions %v", versions)
	}
}

func TestPostsFeedIsValidRSS(t *testing.T) {
	api := setupTestAPI(t)
	seedPost(t, api, "feed-item", "Feed Item", "content for the feed", "alice", "")

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.PostsFeed(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if contentType := w.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "application/rss+xml") {
		t.Fatalf("unexpected content type %q", contentType)
	}

	body := w.Body.String()
	if !strings.Contains(body, `<rss version="2.0">`) {
		t.Fatalf("expected rss envelope, got %s", body)
	}
	if !strings.Contains(body, "<title>Feed Item</title>") {
		t.Fatalf("expected post item in feed, got %s", body)
	}
	if !strings.Contains(body, "http://blog.example.com/post/feed-item") {
		t.Fatalf("expected absolute link in feed, got %s", body)
	}
}

func TestCommentsFeedNewestFirst(t *testing.T) {
	api := setupTestAPI(t)
	seedPost(t, api, "debated", "Debated", "body", "alice", "")

	rows := []db.PostComment{
		{Name: "debated", Number: 1, Comment: "first", Author: "a", Time: 1000},
		{Name: "debated", Number: 2, Comment: "second", Author: "b", Time: 2000},
	}
	for _, row := range rows {
		if err := api.DB().Create(&row).Error; err != nil {
			t.Fatalf("insert comment: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/post/debated/feed", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "name", Value: "debated"}}

	api.CommentsFeed(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	second := strings.Index(body, "<description>second</description>")
	first := strings.Index(body, "<description>first</description>")
	if second == -1 || first == -1 || second > first {
		t.Fatalf("expected newest comment first, got %s", body)
	}
}
