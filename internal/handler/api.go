package handler

import (
	"strconv"
	"strings"

	"github.com/fullblog/internal/config"
	"github.com/fullblog/internal/db"
	"github.com/fullblog/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	attachments *service.AttachmentService
	siteName    string
	baseURL     string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	return &API{
		db:          gdb,
		attachments: service.NewAttachmentService(gdb, cfg.UploadDir, cfg.UploadURLPath),
		siteName:    cfg.SiteName,
		baseURL:     strings.TrimRight(cfg.SiteBaseURL, "/"),
	}
}

// DB exposes the underlying gorm handle.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	if _, exists := payload["infoText"]; !exists {
		infoText, err := db.GetSetting(a.db, db.SettingKeyInfoText)
		if err != nil {
			c.Error(err)
		}
		payload["infoText"] = infoText
	}

	c.HTML(status, template, payload)
}

func parsePositiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// warningMessages 把校验警告整理成模板可直接展示的文本行。
func warningMessages(warnings []service.Warning) []string {
	messages := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		if warning.Field == "" {
			messages = append(messages, warning.Message)
			continue
		}
		messages = append(messages, warning.Field+": "+warning.Message)
	}
	return messages
}
