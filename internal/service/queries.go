package service

import (
	"errors"
	"slices"
	"time"

	"github.com/fullblog/internal/db"
	"gorm.io/gorm"
)

// ErrNoSearchTerms 表示调用搜索时没有提供任何检索词。
var ErrNoSearchTerms = errors.New("search terms are required")

// currentVersionJoin restricts a fullblog_posts query to each post's
// current (maximum) version via a max-aggregate subquery join.
const currentVersionJoin = "JOIN (SELECT name, MAX(version) AS ver FROM fullblog_posts GROUP BY name) latest " +
	"ON latest.name = fullblog_posts.name AND latest.ver = fullblog_posts.version"

// PostRow is the flat listing tuple returned by the post queries. Time is
// the publish time by default, or the version time for all-version queries.
type PostRow struct {
	Name       string
	Version    int
	Time       time.Time
	Author     string
	Title      string
	Body       string
	Categories []string
}

// CommentRow is the flat tuple returned by the comment queries.
type CommentRow struct {
	PostName string
	Number   int
	Comment  string
	Author   string
	Time     time.Time
}

// PostFilter describes the conjunctive criteria accepted by GetPosts.
// Zero values do not restrict the result.
type PostFilter struct {
	Category    string
	Author      string
	From        *time.Time
	To          *time.Time
	AllVersions bool
}

// MonthGroup is one calendar month worth of posts from GroupPostsByMonth.
// Period is the first day of the month, UTC.
type MonthGroup struct {
	Period time.Time
	Posts  []PostRow
}

// SearchPosts runs a free text search over title, body, author, categories
// and name of each post's current version.
func SearchPosts(gdb *gorm.DB, terms []string) ([]PostRow, error) {
	if len(terms) == 0 {
		return nil, ErrNoSearchTerms
	}

	columns := []string{
		"fullblog_posts.name",
		"fullblog_posts.title",
		"fullblog_posts.body",
		"fullblog_posts.author",
		"fullblog_posts.categories",
	}
	clause, args := searchClause(columns, terms)

	var rows []db.PostRevision
	err := gdb.Model(&db.PostRevision{}).
		Joins(currentVersionJoin).
		Where(clause, args...).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	posts := make([]PostRow, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, PostRow{
			Name:       row.Name,
			Version:    row.Version,
			Time:       time.Unix(row.PublishTime, 0).UTC(),
			Author:     row.Author,
			Title:      row.Title,
			Body:       row.Body,
			Categories: ParseCategories(row.Categories),
		})
	}
	return posts, nil
}

// SearchComments runs the same free text predicate over comment author and
// body across all stored comments.
func SearchComments(gdb *gorm.DB, terms []string) ([]CommentRow, error) {
	if len(terms) == 0 {
		return nil, ErrNoSearchTerms
	}

	clause, args := searchClause([]string{"author", "comment"}, terms)

	var rows []db.PostComment
	if err := gdb.Model(&db.PostComment{}).Where(clause, args...).Find(&rows).Error; err != nil {
		return nil, err
	}
	return commentRows(rows), nil
}

// GetPosts fetches posts matching the conjunctive filter, newest first by
// the chosen time field. By default only current versions are considered
// and the time criteria apply to the publish time; with AllVersions every
// stored version qualifies and the version time is used instead.
//
// The category criterion runs as a LIKE query first and is re-checked
// against the parsed tag list in memory: the SQL predicate alone also
// matches posts whose categories merely contain the requested tag as a
// substring.
func GetPosts(gdb *gorm.DB, filter PostFilter) ([]PostRow, error) {
	timeField := "fullblog_posts.publish_time"
	query := gdb.Model(&db.PostRevision{})
	if filter.AllVersions {
		timeField = "fullblog_posts.version_time"
	} else {
		query = query.Joins(currentVersionJoin)
	}

	if filter.Category != "" {
		query = query.Where("fullblog_posts.categories LIKE ?", "%"+filter.Category+"%")
	}
	if filter.Author != "" {
		query = query.Where("fullblog_posts.author = ?", filter.Author)
	}
	if filter.From != nil {
		query = query.Where(timeField+" > ?", filter.From.Unix())
	}
	if filter.To != nil {
		query = query.Where(timeField+" < ?", filter.To.Unix())
	}

	var rows []db.PostRevision
	if err := query.Order(timeField + " desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	posts := make([]PostRow, 0, len(rows))
	for _, row := range rows {
		categories := ParseCategories(row.Categories)
		if filter.Category != "" && !slices.Contains(categories, filter.Category) {
			continue
		}
		rowTime := row.PublishTime
		if filter.AllVersions {
			rowTime = row.VersionTime
		}
		posts = append(posts, PostRow{
			Name:       row.Name,
			Version:    row.Version,
			Time:       time.Unix(rowTime, 0).UTC(),
			Author:     row.Author,
			Title:      row.Title,
			Body:       row.Body,
			Categories: categories,
		})
	}
	return posts, nil
}

// GetComments fetches comments matching the conjunctive filter on exact
// post name and comment time range. No ordering is guaranteed.
func GetComments(gdb *gorm.DB, postName string, from, to *time.Time) ([]CommentRow, error) {
	query := gdb.Model(&db.PostComment{})
	if postName != "" {
		query = query.Where("name = ?", postName)
	}
	if from != nil {
		query = query.Where("time > ?", from.Unix())
	}
	if to != nil {
		query = query.Where("time < ?", to.Unix())
	}

	var rows []db.PostComment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return commentRows(rows), nil
}

// GetResources returns a resource handle (current version) for every post
// with at least one stored version, ordered by descending publish time of
// the current version.
func GetResources(gdb *gorm.DB) ([]Resource, error) {
	var names []string
	err := gdb.Model(&db.PostRevision{}).
		Joins(currentVersionJoin).
		Order("fullblog_posts.publish_time desc").
		Pluck("fullblog_posts.name", &names).Error
	if err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(names))
	for _, name := range names {
		resources = append(resources, NewResource(name, 0))
	}
	return resources, nil
}

// GroupPostsByMonth partitions an already time-descending post list into
// contiguous runs sharing the same calendar month. It neither sorts nor
// merges non-adjacent runs of the same month, so callers must hand it the
// ordering produced by GetPosts.
func GroupPostsByMonth(posts []PostRow) []MonthGroup {
	if len(posts) == 0 {
		return nil
	}

	var groups []MonthGroup
	current := monthStart(posts[0].Time)
	var run []PostRow
	for _, post := range posts {
		start := monthStart(post.Time)
		if !start.Equal(current) {
			groups = append(groups, MonthGroup{Period: current, Posts: run})
			current = start
			run = []PostRow{post}
			continue
		}
		run = append(run, post)
	}
	return append(groups, MonthGroup{Period: current, Posts: run})
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func commentRows(rows []db.PostComment) []CommentRow {
	comments := make([]CommentRow, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, CommentRow{
			PostName: row.Name,
			Number:   row.Number,
			Comment:  row.Comment,
			Author:   row.Author,
			Time:     time.Unix(row.Time, 0).UTC(),
		})
	}
	return comments
}
