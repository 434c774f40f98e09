package service

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	// 注册标准图片格式与 webp 的解码器，供尺寸探测使用。
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fullblog/internal/db"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentMissing  = errors.New("attachment file is required")
)

// AttachmentService manages the files attached to blog resources.
type AttachmentService struct {
	db        *gorm.DB
	uploadDir string
	uploadURL string
}

// NewAttachmentService creates an AttachmentService storing files under
// uploadDir and serving them below uploadURL.
func NewAttachmentService(gdb *gorm.DB, uploadDir, uploadURL string) *AttachmentService {
	return &AttachmentService{db: gdb, uploadDir: uploadDir, uploadURL: uploadURL}
}

// List returns the attachments recorded under a resource, oldest first.
func (s *AttachmentService) List(res Resource) ([]db.Attachment, error) {
	var attachments []db.Attachment
	err := s.db.Where("realm = ? AND parent_id = ?", res.Realm, res.ID).
		Order("id asc").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// Save stores the uploaded content on disk under a generated name and
// records the attachment row. Image dimensions are probed best effort.
func (s *AttachmentService) Save(res Resource, filename, author, description string, content io.Reader) (*db.Attachment, error) {
	if filename == "" || content == nil {
		return nil, ErrAttachmentMissing
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, err
	}

	ext := filepath.Ext(filename)
	storageName := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	storagePath := filepath.Join(s.uploadDir, storageName)

	out, err := os.Create(storagePath)
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(out, content)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	width, height := probeImageSize(storagePath)

	attachment := db.Attachment{
		Realm:       res.Realm,
		ParentID:    res.ID,
		Filename:    filename,
		StoragePath: storagePath,
		Size:        size,
		Width:       width,
		Height:      height,
		Description: description,
		Author:      author,
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		os.Remove(storagePath)
		return nil, err
	}
	return &attachment, nil
}

// URL returns the public path an attachment is served under.
func (s *AttachmentService) URL(attachment db.Attachment) string {
	return s.uploadURL + "/" + filepath.Base(attachment.StoragePath)
}

// Delete removes a single attachment row and its file.
func (s *AttachmentService) Delete(id uint) error {
	var attachment db.Attachment
	if err := s.db.First(&attachment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttachmentNotFound
		}
		return err
	}
	return removeAttachment(s.db, attachment)
}

// DeleteAll removes every attachment under a resource, rows and files.
func (s *AttachmentService) DeleteAll(res Resource) error {
	return deleteResourceAttachments(s.db, res)
}

// deleteResourceAttachments 供文章删除级联复用，不依赖服务实例。
func deleteResourceAttachments(gdb *gorm.DB, res Resource) error {
	var attachments []db.Attachment
	err := gdb.Where("realm = ? AND parent_id = ?", res.Realm, res.ID).
		Find(&attachments).Error
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		if err := removeAttachment(gdb, attachment); err != nil {
			return err
		}
	}
	return nil
}

func removeAttachment(gdb *gorm.DB, attachment db.Attachment) error {
	// 文件可能已被手工清理，缺失不算错误。
	if err := os.Remove(attachment.StoragePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return gdb.Unscoped().Delete(&db.Attachment{}, attachment.ID).Error
}

// probeImageSize returns the pixel dimensions of an image file, or zeros
// for anything that does not decode as a known image format.
func probeImageSize(path string) (int, int) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
