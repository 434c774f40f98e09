package db

import "gorm.io/gorm"

// Attachment 记录挂在某个资源（realm + parent_id）下的上传文件。
// 文件本体保存在磁盘上，StoragePath 为相对服务根目录的路径。
type Attachment struct {
	gorm.Model
	Realm       string `gorm:"size:50;index:idx_attachments_parent"`
	ParentID    string `gorm:"size:255;index:idx_attachments_parent"`
	Filename    string `gorm:"not null"`
	StoragePath string `gorm:"not null"`
	Size        int64
	Width       int
	Height      int
	Description string
	Author      string
}
