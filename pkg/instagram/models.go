package instagram

// Raw upstream shapes. Fields that vary across API generations are pointers
// so absence can be told apart from zero.

// ProfileResponse is the body of the profile-info endpoint
type ProfileResponse struct {
	Data *ProfileData `json:"data"`
}

// ProfileData wraps the profile user
type ProfileData struct {
	User *ProfileUser `json:"user"`
}

// ProfileUser holds the profile fields
type ProfileUser struct {
	ID                       string         `json:"id"`
	Username                 string         `json:"username"`
	Biography                string         `json:"biography"`
	IsPrivate                bool           `json:"is_private"`
	IsVerified               bool           `json:"is_verified"`
	ProfilePicURL            string         `json:"profile_pic_url"`
	ProfilePicURLHD          string         `json:"profile_pic_url_hd"`
	EdgeFollowedBy           *Count         `json:"edge_followed_by"`
	EdgeFollow               *Count         `json:"edge_follow"`
	EdgeOwnerToTimelineMedia *TimelineMedia `json:"edge_owner_to_timeline_media"`
}

// Count is an edge that only carries a total
type Count struct {
	Count *int64 `json:"count"`
}

// TimelineResponse is the body of the timeline-media endpoint
type TimelineResponse struct {
	Data *TimelineData `json:"data"`
}

// TimelineData wraps the timeline user
type TimelineData struct {
	User *TimelineUser `json:"user"`
}

// TimelineUser holds the media connection
type TimelineUser struct {
	EdgeOwnerToTimelineMedia *TimelineMedia `json:"edge_owner_to_timeline_media"`
}

// TimelineMedia is one page of the media connection
type TimelineMedia struct {
	Count    int64     `json:"count"`
	PageInfo *PageInfo `json:"page_info"`
	Edges    []Edge    `json:"edges"`
}

// PageInfo carries pagination continuation
type PageInfo struct {
	HasNextPage bool    `json:"has_next_page"`
	EndCursor   *string `json:"end_cursor"`
}

// Edge wraps a single media node
type Edge struct {
	Node Node `json:"node"`
}

// Node is one raw media record
type Node struct {
	ID               string `json:"id"`
	Typename         string `json:"__typename"`
	Shortcode        string `json:"shortcode"`
	DisplayURL       string `json:"display_url"`
	IsVideo          bool   `json:"is_video"`
	TakenAtTimestamp *int64 `json:"taken_at_timestamp"`
	VideoViewCount   *int64 `json:"video_view_count"`

	// Older responses carry edge_media_preview_like, newer ones edge_liked_by.
	EdgeLikedBy          *Count `json:"edge_liked_by"`
	EdgeMediaPreviewLike *Count `json:"edge_media_preview_like"`

	EdgeMediaToComment *CommentConnection `json:"edge_media_to_comment"`
	EdgeMediaToCaption *TextConnection    `json:"edge_media_to_caption"`
}

// CommentConnection carries the comment total and the first comment edges
type CommentConnection struct {
	Count *int64     `json:"count"`
	Edges []TextEdge `json:"edges"`
}

// TextConnection is a list of text-bearing edges (captions)
type TextConnection struct {
	Edges []TextEdge `json:"edges"`
}

// TextEdge wraps a text node
type TextEdge struct {
	Node TextNode `json:"node"`
}

// TextNode holds a caption or comment text
type TextNode struct {
	Text string `json:"text"`
}

// TimelinePage is a validated page of media nodes
type TimelinePage struct {
	Nodes       []Node
	HasNextPage bool
	EndCursor   string
	TotalCount  int64
}
