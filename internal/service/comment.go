package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/fullblog/internal/db"
	"gorm.io/gorm"
)

// BlogComment is the model around a single comment on a named post.
// Comments are numbered per post starting at 1; gaps left by deletions are
// never filled in.
type BlogComment struct {
	db *gorm.DB

	PostName string
	Number   int
	Comment  string
	Author   string
	Time     time.Time
}

// NewBlogComment constructs a comment entity attached to the given post name.
// A non-zero number loads the stored comment; number 0 prepares a new one.
func NewBlogComment(gdb *gorm.DB, postName string, number int) (*BlogComment, error) {
	c := &BlogComment{db: gdb, PostName: postName, Time: time.Now().UTC()}
	if number != 0 {
		if _, err := c.Load(number); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Load fetches the comment row by exact key and reports whether it was found.
// On found the comment, author and time fields are populated.
func (c *BlogComment) Load(number int) (bool, error) {
	var row db.PostComment
	err := c.db.Where("name = ? AND number = ?", c.PostName, number).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	c.Number = row.Number
	c.Comment = row.Comment
	c.Author = row.Author
	c.Time = time.Unix(row.Time, 0).UTC()
	return true, nil
}

// Create validates and inserts the comment as the next free number for the
// post. Domain rule violations come back as the warnings list and skip the
// write entirely; an empty list means the comment was stored and reloaded.
// With verifyOnly the validation runs without touching the database.
func (c *BlogComment) Create(comment, author string, verifyOnly bool) ([]Warning, error) {
	if comment == "" {
		comment = c.Comment
	}
	if author == "" {
		author = c.Author
	}

	var warnings []Warning
	if comment == "" {
		warnings = append(warnings, Warning{Field: "comment", Message: "Comment is empty."})
	}
	if author == "" {
		warnings = append(warnings, Warning{Field: "author", Message: "No comment author."})
	}
	if c.PostName == "" {
		warnings = append(warnings, Warning{Field: "post_name", Message: "The comment is not attached to a blog post."})
	}
	if c.Number != 0 {
		warnings = append(warnings, Warning{Field: "number", Message: "Comment seems to already exist."})
	}

	number, err := c.nextNumber(c.db)
	if err != nil {
		return nil, err
	}
	if number == 0 {
		warnings = append(warnings, Warning{Field: "", Message: fmt.Sprintf("Post '%s' does not exist.", c.PostName)})
	}

	if len(warnings) > 0 || verifyOnly {
		return warnings, nil
	}

	// 编号分配与插入放在同一个写事务里，避免读后写的竞争。
	if err := c.db.Transaction(func(tx *gorm.DB) error {
		allocated, err := c.nextNumber(tx)
		if err != nil {
			return err
		}
		if allocated == 0 {
			return ErrPostNotFound
		}
		number = allocated

		row := db.PostComment{
			Name:    c.PostName,
			Number:  number,
			Comment: comment,
			Author:  author,
			Time:    c.Time.Unix(),
		}
		return tx.Create(&row).Error
	}); err != nil {
		return nil, err
	}

	if _, err := c.Load(number); err != nil {
		return nil, err
	}
	return warnings, nil
}

// Delete removes the comment row by exact key. It reports false without
// touching the database when the entity has no complete key.
func (c *BlogComment) Delete() (bool, error) {
	if c.PostName == "" || c.Number == 0 {
		return false, nil
	}
	err := c.db.Where("name = ? AND number = ?", c.PostName, c.Number).
		Delete(&db.PostComment{}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// nextNumber derives the next free comment number: one past the stored
// maximum, 1 when the post exists without comments, 0 when no version of
// the post exists at all.
func (c *BlogComment) nextNumber(tx *gorm.DB) (int, error) {
	var maxNumber int
	err := tx.Model(&db.PostComment{}).
		Where("name = ?", c.PostName).
		Select("COALESCE(MAX(number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	if maxNumber > 0 {
		return maxNumber + 1, nil
	}

	var versions int64
	if err := tx.Model(&db.PostRevision{}).Where("name = ?", c.PostName).Count(&versions).Error; err != nil {
		return 0, err
	}
	if versions > 0 {
		return 1, nil
	}
	return 0, nil
}
