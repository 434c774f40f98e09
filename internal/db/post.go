package db

// PostRevision 对应博客文章的一个不可变历史版本行，主键为 (name, version)。
// 每次保存都会插入新的版本行，旧版本永不更新。
// 时间列按约定存储为 Unix 秒。
type PostRevision struct {
	Name           string `gorm:"primaryKey;size:255"`
	Version        int    `gorm:"primaryKey"`
	Title          string
	Body           string `gorm:"type:text"`
	PublishTime    int64
	VersionTime    int64
	VersionComment string
	VersionAuthor  string
	Author         string
	Categories     string
}

// TableName 指定自定义表名。
func (PostRevision) TableName() string {
	return "fullblog_posts"
}
