package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/fullblog/internal/service"
	"github.com/gin-gonic/gin"
)

// parseTimeParam 解析 RFC3339 或 Unix 秒两种时间参数格式。
func parseTimeParam(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		utc := parsed.UTC()
		return &utc
	}
	if seconds := parsePositiveInt(value, 0); seconds > 0 {
		utc := time.Unix(int64(seconds), 0).UTC()
		return &utc
	}
	return nil
}

// GetPostsJSON lists posts as flat tuples, honoring the full filter set.
func (a *API) GetPostsJSON(c *gin.Context) {
	filter := service.PostFilter{
		Category:    strings.TrimSpace(c.Query("category")),
		Author:      strings.TrimSpace(c.Query("author")),
		From:        parseTimeParam(c.Query("from")),
		To:          parseTimeParam(c.Query("to")),
		AllVersions: c.Query("all_versions") == "true",
	}

	posts, err := service.GetPosts(a.db, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPostJSON returns one post with version history and comments.
func (a *API) GetPostJSON(c *gin.Context) {
	name := c.Param("name")
	version := parsePositiveInt(c.DefaultQuery("version", "0"), 0)

	post, err := service.NewBlogPost(a.db, name, version)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}

	versions, err := post.GetVersions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}
	if len(versions) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	comments, err := service.GetComments(a.db, post.Name, nil, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":            post.Name,
		"version":         post.Version,
		"title":           post.Title,
		"body":            post.Body,
		"author":          post.Author,
		"publish_time":    post.PublishTime,
		"version_time":    post.VersionTime,
		"version_author":  post.VersionAuthor,
		"version_comment": post.VersionComment,
		"categories":      post.CategoryList,
		"versions":        versions,
		"comments":        comments,
	})
}

// SearchJSON runs the free text search over posts and comments.
func (a *API) SearchJSON(c *gin.Context) {
	terms := strings.Fields(strings.TrimSpace(c.Query("q")))
	if len(terms) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	posts, err := service.SearchPosts(a.db, terms)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	comments, err := service.SearchComments(a.db, terms)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "comments": comments})
}
