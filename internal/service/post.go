package service

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/fullblog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrPostNotFound 表示按名称找不到任何版本的文章。
	ErrPostNotFound = errors.New("blog post not found")
)

// BlogPost is the model around a named, versioned blog post. Saving always
// appends a new version row, so the full history of a post is retained.
// A post with zero stored versions is considered non-existent.
type BlogPost struct {
	db *gorm.DB

	Name           string
	Version        int
	Title          string
	Body           string
	PublishTime    time.Time
	VersionTime    time.Time
	VersionComment string
	VersionAuthor  string
	Author         string
	Categories     string
	CategoryList   []string
	Resource       Resource
}

// NewBlogPost constructs a post entity for the given name (whitespace
// trimmed) and loads the requested version, or the current one for
// version 0. When nothing is stored under the name the entity keeps its
// default field values; the resource handle is resolved either way.
func NewBlogPost(gdb *gorm.DB, name string, version int) (*BlogPost, error) {
	now := time.Now().UTC()
	p := &BlogPost{
		db:          gdb,
		Name:        strings.TrimSpace(name),
		PublishTime: now,
		VersionTime: now,
	}
	if _, err := p.Load(version); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateFields applies a batch of field updates in memory only. Unknown
// field names and the database keys (name, version) are skipped. Updating
// categories recomputes the derived CategoryList. Reports whether any field
// actually changed value, so callers can skip Save for no-op edits.
func (p *BlogPost) UpdateFields(fields map[string]interface{}) bool {
	changed := false
	for field, value := range fields {
		switch field {
		case "title":
			if s, ok := value.(string); ok && s != p.Title {
				p.Title = s
				changed = true
			}
		case "body":
			if s, ok := value.(string); ok && s != p.Body {
				p.Body = s
				changed = true
			}
		case "author":
			if s, ok := value.(string); ok && s != p.Author {
				p.Author = s
				changed = true
			}
		case "version_comment":
			if s, ok := value.(string); ok && s != p.VersionComment {
				p.VersionComment = s
				changed = true
			}
		case "version_author":
			if s, ok := value.(string); ok && s != p.VersionAuthor {
				p.VersionAuthor = s
				changed = true
			}
		case "categories":
			if s, ok := value.(string); ok && s != p.Categories {
				p.Categories = s
				p.CategoryList = ParseCategories(s)
				changed = true
			}
		case "publish_time":
			if t, ok := value.(time.Time); ok && !t.Equal(p.PublishTime) {
				p.PublishTime = t
				changed = true
			}
		case "version_time":
			if t, ok := value.(time.Time); ok && !t.Equal(p.VersionTime) {
				p.VersionTime = t
				changed = true
			}
		}
	}
	return changed
}

// Save validates the post and appends it as a new version row, leaving all
// prior versions untouched, then reloads the stored version into the entity.
// Validation problems come back as the warnings list and prevent the write;
// verifyOnly runs the checks without writing.
func (p *BlogPost) Save(versionAuthor, versionComment string, verifyOnly bool) ([]Warning, error) {
	var warnings []Warning
	if versionAuthor == "" {
		warnings = append(warnings, Warning{Field: "version_author", Message: "Version author missing."})
	}
	required := []struct {
		field string
		value string
	}{
		{"name", p.Name},
		{"title", p.Title},
		{"body", p.Body},
		{"author", p.Author},
	}
	for _, item := range required {
		if item.value == "" {
			label := strings.ToUpper(item.field[:1]) + item.field[1:]
			warnings = append(warnings, Warning{Field: item.field, Message: label + " is empty."})
		}
	}
	if len(warnings) > 0 || verifyOnly {
		return warnings, nil
	}

	versionTime := time.Now().UTC()
	var version int

	// 版本号分配与插入共用一个写事务，保证 max+1 不会被并发保存撞号。
	if err := p.db.Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&db.PostRevision{}).
			Where("name = ?", p.Name).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		version = maxVersion + 1

		row := db.PostRevision{
			Name:           p.Name,
			Version:        version,
			Title:          p.Title,
			Body:           p.Body,
			PublishTime:    p.PublishTime.Unix(),
			VersionTime:    versionTime.Unix(),
			VersionComment: versionComment,
			VersionAuthor:  versionAuthor,
			Author:         p.Author,
			Categories:     p.Categories,
		}
		return tx.Create(&row).Error
	}); err != nil {
		return nil, err
	}

	if _, err := p.Load(version); err != nil {
		return nil, err
	}
	return warnings, nil
}

// Delete removes one version (non-zero version) or every version of the
// post (version 0). Once zero versions remain the deletion cascades to all
// comments and all attachments under the post's resource.
func (p *BlogPost) Delete(version int) error {
	query := p.db.Where("name = ?", p.Name)
	if version != 0 {
		query = query.Where("version = ?", version)
	}
	if err := query.Delete(&db.PostRevision{}).Error; err != nil {
		return err
	}

	versions, err := p.GetVersions()
	if err != nil {
		return err
	}
	if len(versions) > 0 {
		return nil
	}

	comments, err := p.GetComments()
	if err != nil {
		return err
	}
	for _, comment := range comments {
		if _, err := comment.Delete(); err != nil {
			return err
		}
	}

	return deleteResourceAttachments(p.db, p.Resource)
}

// GetVersions returns the ascending list of stored version numbers for the
// post name; an empty list means the post does not exist.
func (p *BlogPost) GetVersions() ([]int, error) {
	var versions []int
	err := p.db.Model(&db.PostRevision{}).
		Where("name = ?", p.Name).
		Order("version asc").
		Pluck("version", &versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// GetComments returns the comment entities attached to the post, ordered by
// ascending comment number.
func (p *BlogPost) GetComments() ([]*BlogComment, error) {
	var rows []db.PostComment
	err := p.db.Where("name = ?", p.Name).Order("number asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	comments := make([]*BlogComment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, &BlogComment{
			db:       p.db,
			PostName: row.Name,
			Number:   row.Number,
			Comment:  row.Comment,
			Author:   row.Author,
			Time:     time.Unix(row.Time, 0).UTC(),
		})
	}
	return comments, nil
}

// Load resolves the resource handle and populates the entity from the
// requested version row, or the current (maximum) version for version 0.
// Reports whether a matching row was found; a miss leaves the defaults.
func (p *BlogPost) Load(version int) (bool, error) {
	p.Resource = NewResource(p.Name, 0)

	versions, err := p.GetVersions()
	if err != nil {
		return false, err
	}
	if len(versions) == 0 {
		return false, nil
	}
	if version != 0 && !slices.Contains(versions, version) {
		return false, nil
	}
	if version == 0 {
		version = versions[len(versions)-1]
	}

	var row db.PostRevision
	err = p.db.Where("name = ? AND version = ?", p.Name, version).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	p.Version = row.Version
	p.Title = row.Title
	p.Body = row.Body
	p.PublishTime = time.Unix(row.PublishTime, 0).UTC()
	p.VersionTime = time.Unix(row.VersionTime, 0).UTC()
	p.VersionComment = row.VersionComment
	p.VersionAuthor = row.VersionAuthor
	p.Author = row.Author
	p.Categories = row.Categories
	p.CategoryList = ParseCategories(row.Categories)
	return true, nil
}
