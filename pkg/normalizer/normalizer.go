// Package normalizer maps raw Instagram nodes onto the canonical models.
// Every function here is pure.
package normalizer

import (
	"igdash/pkg/errors"
	"igdash/pkg/instagram"
	"igdash/pkg/models"
)

// Normalize maps one raw media node to a Post. index is the node's position
// in its page and is only used to locate failures.
//
// Only the id and type tag are required. Every other field falls back to its
// zero value because the upstream shape varies across API generations.
func Normalize(node instagram.Node, index int) (models.Post, error) {
	if node.ID == "" {
		return models.Post{}, &errors.MalformedNodeError{Field: "id", Index: index}
	}
	if node.Typename == "" {
		return models.Post{}, &errors.MalformedNodeError{Field: "__typename", Index: index}
	}

	post := models.Post{
		PostID:      node.ID,
		Type:        node.Typename,
		LikesCount:  likes(node),
		Description: caption(node.EdgeMediaToCaption),
		DateTime:    value(node.TakenAtTimestamp),
		MediaURL:    node.DisplayURL,
		TopComments: topComments(node.EdgeMediaToComment),
	}

	if node.EdgeMediaToComment != nil {
		post.CommentsCount = nonNegative(value(node.EdgeMediaToComment.Count))
	}
	if post.IsVideo() {
		post.ViewsCount = nonNegative(value(node.VideoViewCount))
	}

	return post, nil
}

// NormalizeAll maps a page of nodes in order, failing on the first malformed node
func NormalizeAll(nodes []instagram.Node) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(nodes))
	for i, node := range nodes {
		post, err := Normalize(node, i)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// Profile flattens a profile user into a summary. The HD picture wins over
// the regular one when both are present.
func Profile(user *instagram.ProfileUser) models.ProfileSummary {
	if user == nil {
		return models.ProfileSummary{}
	}

	summary := models.ProfileSummary{
		ProfilePicURL:  user.ProfilePicURLHD,
		FollowersCount: nonNegative(count(user.EdgeFollowedBy)),
		FollowingCount: nonNegative(count(user.EdgeFollow)),
		Biography:      user.Biography,
		IsPrivate:      user.IsPrivate,
		IsVerified:     user.IsVerified,
	}
	if summary.ProfilePicURL == "" {
		summary.ProfilePicURL = user.ProfilePicURL
	}
	if user.EdgeOwnerToTimelineMedia != nil {
		summary.PostsCount = nonNegative(user.EdgeOwnerToTimelineMedia.Count)
	}

	return summary
}

// likes resolves the like count across response generations: the liked-by
// edge first, then the preview edge, else 0.
func likes(node instagram.Node) int64 {
	for _, c := range []*instagram.Count{node.EdgeLikedBy, node.EdgeMediaPreviewLike} {
		if c != nil && c.Count != nil {
			return nonNegative(*c.Count)
		}
	}
	return 0
}

func caption(conn *instagram.TextConnection) string {
	if conn == nil || len(conn.Edges) == 0 {
		return ""
	}
	return conn.Edges[0].Node.Text
}

func topComments(conn *instagram.CommentConnection) []string {
	comments := []string{}
	if conn == nil {
		return comments
	}
	for _, edge := range conn.Edges {
		if len(comments) == models.MaxTopComments {
			break
		}
		comments = append(comments, edge.Node.Text)
	}
	return comments
}

func count(c *instagram.Count) int64 {
	if c == nil {
		return 0
	}
	return value(c.Count)
}

func value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
