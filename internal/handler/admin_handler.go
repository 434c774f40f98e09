package handler

import (
	"net/http"
	"strings"

	"github.com/fullblog/internal/db"
	"github.com/fullblog/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{})
}

// Login 处理后台登录请求
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{"error": "invalid username or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{"error": "invalid username or password"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{"error": "failed to save session"})
		return
	}

	c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Logout 清除会话并跳回登录页
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionUsername(c *gin.Context) string {
	session := sessions.Default(c)
	if username, ok := session.Get("username").(string); ok {
		return username
	}
	return ""
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	resources, err := service.GetResources(a.db)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	comments, err := service.GetComments(a.db, "", nil, nil)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"username":     sessionUsername(c),
		"postCount":    len(resources),
		"commentCount": len(comments),
	})
}

// ShowPostEditor 渲染新建或编辑文章的表单。编辑时预载当前版本内容。
func (a *API) ShowPostEditor(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))

	data := gin.H{"username": sessionUsername(c)}
	if name != "" {
		post, err := service.NewBlogPost(a.db, name, 0)
		if err != nil {
			c.String(http.StatusInternalServerError, "failed to load post")
			return
		}
		versions, err := post.GetVersions()
		if err != nil {
			c.String(http.StatusInternalServerError, "failed to load post")
			return
		}
		data["post"] = post
		data["versions"] = versions
	}

	a.renderHTML(c, http.StatusOK, "post_edit.html", data)
}

// SavePost applies the submitted fields to the named post and stores a new
// version when anything changed. Validation warnings re-render the editor.
func (a *API) SavePost(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	versionComment := strings.TrimSpace(c.PostForm("version_comment"))

	post, err := service.NewBlogPost(a.db, name, 0)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load post")
		return
	}

	changed := post.UpdateFields(map[string]interface{}{
		"title":      c.PostForm("title"),
		"body":       c.PostForm("body"),
		"author":     strings.TrimSpace(c.PostForm("author")),
		"categories": strings.TrimSpace(c.PostForm("categories")),
	})
	if !changed {
		a.renderHTML(c, http.StatusOK, "post_edit.html", gin.H{
			"post":   post,
			"notice": "no changes made, version not saved",
		})
		return
	}

	warnings, err := post.Save(sessionUsername(c), versionComment, false)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to save post")
		return
	}
	if len(warnings) > 0 {
		a.renderHTML(c, http.StatusBadRequest, "post_edit.html", gin.H{
			"post":     post,
			"warnings": warningMessages(warnings),
		})
		return
	}

	c.Redirect(http.StatusFound, "/post/"+post.Name)
}

// DeletePost removes one version of a post, or the whole post including its
// comments and attachments when no version is given.
func (a *API) DeletePost(c *gin.Context) {
	name := c.Param("name")
	version := parsePositiveInt(c.DefaultQuery("version", "0"), 0)

	post, err := service.NewBlogPost(a.db, name, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}
	if err := post.Delete(version); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": name, "version": version})
}

// DeleteComment removes a single comment by its exact key.
func (a *API) DeleteComment(c *gin.Context) {
	name := c.Param("name")
	number := parsePositiveInt(c.Param("number"), 0)

	comment, err := service.NewBlogComment(a.db, name, number)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comment"})
		return
	}

	deleted, err := comment.Delete()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": name, "number": number})
}

// UpdateInfoText 更新侧栏站点说明。
func (a *API) UpdateInfoText(c *gin.Context) {
	if err := db.SetSetting(a.db, db.SettingKeyInfoText, c.PostForm("info_text")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update info text"})
		return
	}
	c.Redirect(http.StatusFound, "/admin/dashboard")
}
