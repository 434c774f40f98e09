package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fullblog/internal/service"
	"github.com/gin-gonic/gin"
)

// UploadAttachment 接收文章附件并记录归属。
func (a *API) UploadAttachment(c *gin.Context) {
	name := c.Param("name")

	post, err := service.NewBlogPost(a.db, name, 0)
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
		c.JSON(http.StatusNotFound, gin.H{"error": "post does not exist"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer opened.Close()

	description := strings.TrimSpace(c.PostForm("description"))
	attachment, err := a.attachments.Save(post.Resource, file.Filename, sessionUsername(c), description, opened)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attachment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       attachment.ID,
		"filename": attachment.Filename,
		"url":      a.attachments.URL(*attachment),
		"size":     attachment.Size,
	})
}

// DeleteAttachment 删除单个附件。
func (a *API) DeleteAttachment(c *gin.Context) {
	id := parsePositiveInt(c.Param("id"), 0)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}

	if err := a.attachments.Delete(uint(id)); err != nil {
		if errors.Is(err, service.ErrAttachmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete attachment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
