package db

// PostComment 对应文章评论行，主键为 (name, number)。
// number 按文章内递增分配，删除后不会复用。
type PostComment struct {
	Name    string `gorm:"primaryKey;size:255"`
	Number  int    `gorm:"primaryKey"`
	Comment string `gorm:"type:text"`
	Author  string
	Time    int64
}

// TableName 指定自定义表名。
func (PostComment) TableName() string {
	return "fullblog_comments"
}
