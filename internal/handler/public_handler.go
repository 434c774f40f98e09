package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fullblog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const postsPerPage = 10

// renderBody 将文章或评论正文渲染为净化后的 HTML。
func renderBody(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// postView 是文章列表/详情页使用的展示模型。
type postView struct {
	Name       string
	Version    int
	Time       time.Time
	Author     string
	Title      string
	Body       template.HTML
	Categories []string
}

func postViews(posts []service.PostRow) []postView {
	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, postView{
			Name:       post.Name,
			Version:    post.Version,
			Time:       post.Time,
			Author:     post.Author,
			Title:      post.Title,
			Body:       renderBody(post.Body),
			Categories: post.Categories,
		})
	}
	return views
}

// ShowHome renders the public listing, newest posts first.
func (a *API) ShowHome(c *gin.Context) {
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)

	posts, err := service.GetPosts(a.db, service.PostFilter{})
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "home.html", gin.H{
			"error": "failed to load posts",
		})
		return
	}

	totalPages := (len(posts) + postsPerPage - 1) / postsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * postsPerPage
	end := start + postsPerPage
	if end > len(posts) {
		end = len(posts)
	}

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"posts":      postViews(posts[start:end]),
		"page":       page,
		"totalPages": totalPages,
		"hasMore":    page < totalPages,
		"year":       time.Now().Year(),
	})
}

// ShowArchive renders the month-grouped timeline of all posts.
func (a *API) ShowArchive(c *gin.Context) {
	posts, err := service.GetPosts(a.db, service.PostFilter{})
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "archive.html", gin.H{
			"error": "failed to load archive",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "archive.html", gin.H{
		"groups": service.GroupPostsByMonth(posts),
	})
}

// ShowCategory lists the posts carrying an exact category tag.
func (a *API) ShowCategory(c *gin.Context) {
	category := strings.TrimSpace(c.Param("category"))

	posts, err := service.GetPosts(a.db, service.PostFilter{Category: category})
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "listing.html", gin.H{
			"error": "failed to load posts",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "listing.html", gin.H{
		"heading": "Category: " + category,
		"posts":   postViews(posts),
	})
}

// ShowAuthor lists the posts written by one author.
func (a *API) ShowAuthor(c *gin.Context) {
	author := strings.TrimSpace(c.Param("author"))

	posts, err := service.GetPosts(a.db, service.PostFilter{Author: author})
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "listing.html", gin.H{
			"error": "failed to load posts",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "listing.html", gin.H{
		"heading": "Posts by " + author,
		"posts":   postViews(posts),
	})
}

// ShowSearch runs the free text search over posts and comments.
func (a *API) ShowSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	terms := strings.Fields(query)

	data := gin.H{"query": query}
	if len(terms) > 0 {
		posts, err := service.SearchPosts(a.db, terms)
		if err != nil {
			a.renderHTML(c, http.StatusInternalServerError, "search.html", gin.H{
				"error": "search failed",
			})
			return
		}
		comments, err := service.SearchComments(a.db, terms)
		if err != nil {
			a.renderHTML(c, http.StatusInternalServerError, "search.html", gin.H{
				"error": "search failed",
			})
			return
		}
		data["posts"] = postViews(posts)
		data["comments"] = comments
	}

	a.renderHTML(c, http.StatusOK, "search.html", data)
}

// ShowPost renders a single post: requested version or the current one,
// plus its version history, comments and attachments.
func (a *API) ShowPost(c *gin.Context) {
	name := c.Param("name")
	version := parsePositiveInt(c.DefaultQuery("version", "0"), 0)

	post, err := service.NewBlogPost(a.db, name, version)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load post")
		return
	}

	versions, err := post.GetVersions()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load post")
		return
	}
	if len(versions) == 0 || (version != 0 && post.Version != version) {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{"name": post.Name})
		return
	}

	comments, err := post.GetComments()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load comments")
		return
	}

	attachments, err := a.attachments.List(post.Resource)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load attachments")
		return
	}

	a.renderHTML(c, http.StatusOK, "post.html", gin.H{
		"post":        post,
		"body":        renderBody(post.Body),
		"versions":    versions,
		"comments":    comments,
		"attachments": attachments,
	})
}

// AddComment handles the comment form on a post page.
func (a *API) AddComment(c *gin.Context) {
	name := c.Param("name")
	text := strings.TrimSpace(c.PostForm("comment"))
	author := strings.TrimSpace(c.PostForm("author"))

	comment, err := service.NewBlogComment(a.db, name, 0)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to prepare comment")
		return
	}

	warnings, err := comment.Create(text, author, false)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to store comment")
		return
	}
	if len(warnings) > 0 {
		a.renderHTML(c, http.StatusBadRequest, "comment_error.html", gin.H{
			"name":     name,
			"warnings": warningMessages(warnings),
		})
		return
	}

	c.Redirect(http.StatusFound, "/post/"+name+"#comment-"+strconv.Itoa(comment.Number))
}
