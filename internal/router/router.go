package router

import (
	"html/template"
	"time"

	"github.com/fullblog/internal/config"
	"github.com/fullblog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup 配置 Gin 引擎和路由
func Setup(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("fullblog_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"monthLabel": func(t time.Time) string {
			return t.Format("January 2006")
		},
		"dateLabel": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	})
	r.LoadHTMLGlob("web/template/*.html")

	// 静态文件服务
	r.Static("/static", "./web/static")

	api := handler.NewAPI(gdb, cfg)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 公开页面
	r.GET("/", api.ShowHome)
	r.GET("/archive", api.ShowArchive)
	r.GET("/category/:category", api.ShowCategory)
	r.GET("/author/:author", api.ShowAuthor)
	r.GET("/search", api.ShowSearch)
	r.GET("/post/:name", api.ShowPost)
	r.POST("/post/:name/comments", api.AddComment)

	// RSS 输出
	r.GET("/feed", api.PostsFeed)
	r.GET("/post/:name/feed", api.CommentsFeed)

	// 只读 JSON 接口
	public := r.Group("/api")
	{
		public.GET("/posts", api.GetPostsJSON)
		public.GET("/posts/:name", api.GetPostJSON)
		public.GET("/search", api.SearchJSON)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/posts/edit", api.ShowPostEditor)
			auth.POST("/posts", api.SavePost)
			auth.POST("/info", api.UpdateInfoText)

			adminAPI := auth.Group("/api")
			{
				adminAPI.DELETE("/posts/:name", api.DeletePost)
				adminAPI.DELETE("/posts/:name/comments/:number", api.DeleteComment)
				adminAPI.POST("/posts/:name/attachments", api.UploadAttachment)
				adminAPI.DELETE("/attachments/:id", api.DeleteAttachment)
			}
		}
	}

	return r
}
