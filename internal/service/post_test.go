package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/fullblog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupBlogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:blog-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func savePost(t *testing.T, gdb *gorm.DB, name, title, body string) *BlogPost {
	t.Helper()
	post, err := NewBlogPost(gdb, name, 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	post.UpdateFields(map[string]interface{}{
		"title":  title,
		"body":   body,
		"author": "user",
	})
	warnings, err := post.Save("user", "", false)
	if err != nil {
		t.Fatalf("save post: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	return post
}

func TestBlogPostSaveAppendsVersions(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post, err := NewBlogPost(gdb, "first-post", 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	post.UpdateFields(map[string]interface{}{
		"title":  "First",
		"body":   "body v1",
		"author": "user",
	})

	for i := 1; i <= 3; i++ {
		post.Body = fmt.Sprintf("body v%d", i)
		warnings, err := post.Save("user", fmt.Sprintf("edit %d", i), false)
		if err != nil {
			t.Fatalf("save version %d: %v", i, err)
		}
		if len(warnings) != 0 {
			t.Fatalf("save version %d warnings: %v", i, warnings)
		}
		if post.Version != i {
			t.Fatalf("expected entity at version %d, got %d", i, post.Version)
		}
	}

	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %v", versions)
	}
	for i, version := range versions {
		if version != i+1 {
			t.Fatalf("expected dense versions 1..3, got %v", versions)
		}
	}

	current, err := NewBlogPost(gdb, "first-post", 0)
	if err != nil {
		t.Fatalf("load current: %v", err)
	}
	if current.Version != 3 || current.Body != "body v3" {
		t.Fatalf("expected current version 3 content, got version %d body %q", current.Version, current.Body)
	}
}

func TestBlogPostSaveCarriesPublishTimeForward(t *testing.T) {
	gdb := setupBlogTestDB(t)

	publishTime := time.Date(2020, 3, 15, 12, 0, 0, 0, time.UTC)
	post, err := NewBlogPost(gdb, "dated", 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	post.UpdateFields(map[string]interface{}{
		"title":        "Dated",
		"body":         "body",
		"author":       "user",
		"publish_time": publishTime,
	})
	if _, err := post.Save("user", "", false); err != nil {
		t.Fatalf("save v1: %v", err)
	}

	post.Body = "body v2"
	if _, err := post.Save("user", "second", false); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	reloaded, err := NewBlogPost(gdb, "dated", 2)
	if err != nil {
		t.Fatalf("load v2: %v", err)
	}
	if !reloaded.PublishTime.Equal(publishTime) {
		t.Fatalf("expected publish time carried forward, got %v", reloaded.PublishTime)
	}
	if reloaded.VersionComment != "second" {
		t.Fatalf("expected version comment, got %q", reloaded.VersionComment)
	}
}

func TestBlogPostSaveValidation(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post, err := NewBlogPost(gdb, "incomplete", 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	post.Title = "Has title"

	warnings, err := post.Save("", "", false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	messages := map[string]string{}
	for _, warning := range warnings {
		messages[warning.Field] = warning.Message
	}
	for _, want := range []string{"version_author", "body", "author"} {
		if _, ok := messages[want]; !ok {
			t.Fatalf("expected warning for %q, got %v", want, warnings)
		}
	}
	if messages["body"] != "Body is empty." || messages["author"] != "Author is empty." {
		t.Fatalf("expected capitalized field labels, got %v", warnings)
	}

	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no write after validation failure, got %v", versions)
	}
}

func TestBlogPostSaveVerifyOnlyWritesNothing(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post, err := NewBlogPost(gdb, "verify", 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	post.UpdateFields(map[string]interface{}{
		"title":  "Valid",
		"body":   "body",
		"author": "user",
	})

	warnings, err := post.Save("user", "", true)
	if err != nil {
		t.Fatalf("verify save: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected clean verification, got %v", warnings)
	}

	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no versions after verify only, got %v", versions)
	}
}

func TestBlogPostUpdateFields(t *testing.T) {
	gdb := setupBlogTestDB(t)
	savePost(t, gdb, "fields", "Title", "body")

	post, err := NewBlogPost(gdb, "fields", 0)
	if err != nil {
		t.Fatalf("load post: %v", err)
	}

	if post.UpdateFields(map[string]interface{}{
		"title":  "Title",
		"body":   "body",
		"author": "user",
	}) {
		t.Fatal("expected no change for identical values")
	}

	if post.UpdateFields(map[string]interface{}{
		"name":    "renamed",
		"version": 99,
	}) {
		t.Fatal("expected key fields to be ignored")
	}
	if post.Name != "fields" || post.Version != 1 {
		t.Fatalf("key fields mutated: name=%q version=%d", post.Name, post.Version)
	}

	if !post.UpdateFields(map[string]interface{}{"categories": "go,  sqlite"}) {
		t.Fatal("expected categories change to be detected")
	}
	if len(post.CategoryList) != 2 || post.CategoryList[0] != "go" || post.CategoryList[1] != "sqlite" {
		t.Fatalf("expected derived category list, got %v", post.CategoryList)
	}

	if post.UpdateFields(map[string]interface{}{"unknown_field": "x"}) {
		t.Fatal("expected unknown fields to be skipped")
	}
}

func TestBlogPostRoundTrip(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post, err := NewBlogPost(gdb, "  round-trip  ", 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	if post.Name != "round-trip" {
		t.Fatalf("expected trimmed name, got %q", post.Name)
	}
	post.UpdateFields(map[string]interface{}{
		"title":      "Round Trip",
		"body":       "the body",
		"author":     "alice",
		"categories": "go testing",
	})
	if _, err := post.Save("alice", "initial", false); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := NewBlogPost(gdb, "round-trip", 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Title != post.Title || loaded.Body != post.Body ||
		loaded.Author != post.Author || loaded.Categories != post.Categories ||
		loaded.VersionAuthor != "alice" || loaded.VersionComment != "initial" ||
		!loaded.PublishTime.Equal(post.PublishTime) ||
		!loaded.VersionTime.Equal(post.VersionTime) {
		t.Fatalf("round trip mismatch: saved %+v loaded %+v", post, loaded)
	}
}

func TestBlogPostLoadMissingKeepsDefaults(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post, err := NewBlogPost(gdb, "ghost", 0)
	if err != nil {
		t.Fatalf("construct post: %v", err)
	}
	if post.Version != 0 || post.Title != "" {
		t.Fatalf("expected default state, got version %d title %q", post.Version, post.Title)
	}
	if post.Resource.Realm != BlogRealm || post.Resource.ID != "ghost" {
		t.Fatalf("expected resource resolved regardless of existence, got %+v", post.Resource)
	}

	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no versions, got %v", versions)
	}
}

func TestBlogPostDeleteSingleVersion(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post := savePost(t, gdb, "multi", "Multi", "v1")
	post.Body = "v2"
	if _, err := post.Save("user", "", false); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	if err := post.Delete(1); err != nil {
		t.Fatalf("delete version 1: %v", err)
	}

	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != 2 {
		t.Fatalf("expected only version 2 left, got %v", versions)
	}
}

func TestBlogPostDeleteCascadesToComments(t *testing.T) {
	gdb := setupBlogTestDB(t)

	post := savePost(t, gdb, "cascading", "Cascade", "body")

	for i := 0; i < 2; i++ {
		comment, err := NewBlogComment(gdb, "cascading", 0)
		if err != nil {
			t.Fatalf("construct comment: %v", err)
		}
		warnings, err := comment.Create(fmt.Sprintf("comment %d", i+1), "bob", false)
		if err != nil {
			t.Fatalf("create comment: %v", err)
		}
		if len(warnings) != 0 {
			t.Fatalf("comment warnings: %v", warnings)
		}
	}

	if err := post.Delete(0); err != nil {
		t.Fatalf("delete all versions: %v", err)
	}

	versions, err := post.GetVersions()
	if err != nil {
		t.Fatalf("get versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected post gone, got versions %v", versions)
	}

	var commentCount int64
	if err := gdb.Model(&db.PostComment{}).Where("name = ?", "cascading").Count(&commentCount).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if commentCount != 0 {
		t.Fatalf("expected comments cascade deleted, %d left", commentCount)
	}
}
