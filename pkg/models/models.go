package models

import (
	"strings"
	"time"
)

// MaxTopComments caps the number of comment texts kept per post
const MaxTopComments = 3

// Upstream type tags
const (
	TypeImage   = "GraphImage"
	TypeVideo   = "GraphVideo"
	TypeSidecar = "GraphSidecar"
)

// typePrefix is the content-type prefix carried by every upstream type tag
const typePrefix = "Graph"

// Post is the canonical record produced for one upstream media node
type Post struct {
	PostID        string   `json:"post_id"`
	Type          string   `json:"type"`
	LikesCount    int64    `json:"likes_count"`
	CommentsCount int64    `json:"comments_count"`
	Description   string   `json:"description"`
	DateTime      int64    `json:"date_time"`
	MediaURL      string   `json:"media_url"`
	TopComments   []string `json:"top_comments"`
	ViewsCount    int64    `json:"views_count"`
}

// IsVideo reports whether the post carries the video type tag
func (p Post) IsVideo() bool {
	return p.Type == TypeVideo
}

// CreatedAt converts DateTime (unix seconds) to a time value
func (p Post) CreatedAt() time.Time {
	return time.Unix(p.DateTime, 0).UTC()
}

// StoredPost is a Post as persisted for a handle
type StoredPost struct {
	Post
	Username   string    `json:"username"`
	IngestedAt time.Time `json:"ingested_at"`
}

// ProfileSummary is a flat snapshot of a public profile, fetched fresh per request
type ProfileSummary struct {
	ProfilePicURL  string `json:"profile_pic_url"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	PostsCount     int64  `json:"posts_count"`
	Biography      string `json:"biography"`
	IsPrivate      bool   `json:"is_private"`
	IsVerified     bool   `json:"is_verified"`
}

// DisplayType strips the "Graph" prefix from an upstream type tag for display.
// Tags without the prefix are returned unchanged.
func DisplayType(t string) string {
	return strings.TrimPrefix(t, typePrefix)
}
