package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"igdash/pkg/models"
)

// captionWidth truncates descriptions in the posts table
const captionWidth = 40

var postHeaders = []string{"#", "POST", "TYPE", "LIKES", "COMMENTS", "VIEWS", "POSTED", "DESCRIPTION"}

// RenderPosts renders posts as a table, stripping the type prefix for display
func RenderPosts(posts []models.Post) string {
	rows := make([][]string, 0, len(posts))
	for i, p := range posts {
		views := "-"
		if p.IsVideo() {
			views = fmt.Sprintf("%d", p.ViewsCount)
		}
		posted := "-"
		if p.DateTime > 0 {
			posted = p.CreatedAt().Format(time.DateOnly)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			p.PostID,
			models.DisplayType(p.Type),
			fmt.Sprintf("%d", p.LikesCount),
			fmt.Sprintf("%d", p.CommentsCount),
			views,
			posted,
			Truncate(oneLine(p.Description), captionWidth),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(postHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(posts) && posts[row].IsVideo() {
				return videoStyle
			}
			return cellStyle
		})

	return t.Render()
}

// RenderProfile renders a profile summary as a bordered panel
func RenderProfile(username string, p models.ProfileSummary) string {
	lines := []string{
		labelStyle.Render("@" + username),
		field("Followers", fmt.Sprintf("%d", p.FollowersCount)),
		field("Following", fmt.Sprintf("%d", p.FollowingCount)),
		field("Posts", fmt.Sprintf("%d", p.PostsCount)),
		field("Verified", yesNo(p.IsVerified)),
		field("Private", yesNo(p.IsPrivate)),
	}
	if p.Biography != "" {
		lines = append(lines, field("Bio", oneLine(p.Biography)))
	}
	if p.ProfilePicURL != "" {
		lines = append(lines, field("Picture", p.ProfilePicURL))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Truncate shortens s to at most width runes, marking the cut with an ellipsis
func Truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
