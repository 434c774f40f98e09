package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/fullblog/internal/service"
	"github.com/gin-gonic/gin"
)

const feedItemLimit = 20

// rssFeed / rssChannel / rssItem 组成 RSS 2.0 输出结构。
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

func (a *API) writeFeed(c *gin.Context, feed rssFeed) {
	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to render feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
}

// PostsFeed serves the RSS feed of the most recent posts.
func (a *API) PostsFeed(c *gin.Context) {
	posts, err := service.GetPosts(a.db, service.PostFilter{})
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load posts")
		return
	}
	if len(posts) > feedItemLimit {
		posts = posts[:feedItemLimit]
	}

	items := make([]rssItem, 0, len(posts))
	for _, post := range posts {
		link := fmt.Sprintf("%s/post/%s", a.baseURL, post.Name)
		items = append(items, rssItem{
			Title:       post.Title,
			Link:        link,
			Description: post.Body,
			Author:      post.Author,
			GUID:        link,
			PubDate:     post.Time.Format(time.RFC1123Z),
		})
	}

	a.writeFeed(c, rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.siteName,
			Link:        a.baseURL,
			Description: "Latest blog posts",
			Items:       items,
		},
	})
}

// CommentsFeed serves the RSS feed of the comments on one post, newest
// comment first.
func (a *API) CommentsFeed(c *gin.Context) {
	name := c.Param("name")

	comments, err := service.GetComments(a.db, name, nil, nil)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load comments")
		return
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].Time.After(comments[j].Time)
	})
	if len(comments) > feedItemLimit {
		comments = comments[:feedItemLimit]
	}

	items := make([]rssItem, 0, len(comments))
	for _, comment := range comments {
		link := fmt.Sprintf("%s/post/%s#comment-%d", a.baseURL, comment.PostName, comment.Number)
		items = append(items, rssItem{
			Title:       fmt.Sprintf("Comment %d on %s", comment.Number, comment.PostName),
			Link:        link,
			Description: comment.Comment,
			Author:      comment.Author,
			GUID:        link,
			PubDate:     comment.Time.Format(time.RFC1123Z),
		})
	}

	a.writeFeed(c, rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       fmt.Sprintf("%s: comments on %s", a.siteName, name),
			Link:        fmt.Sprintf("%s/post/%s", a.baseURL, name),
			Description: "Latest comments",
			Items:       items,
		},
	})
}
