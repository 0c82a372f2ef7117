package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"igdash/pkg/instagram"
	"igdash/pkg/models"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) FetchProfile(ctx context.Context, username string) (*instagram.ProfileUser, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*instagram.ProfileUser)
	return user, args.Error(1)
}

func (m *mockClient) FetchTimelinePage(ctx context.Context, userID string, first int, after string) (*instagram.TimelinePage, error) {
	args := m.Called(ctx, userID, first, after)
	page, _ := args.Get(0).(*instagram.TimelinePage)
	return page, args.Error(1)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) InsertPosts(ctx context.Context, username string, posts []models.Post) (int, error) {
	args := m.Called(ctx, username, posts)
	return args.Int(0), args.Error(1)
}

// countingPacer records how many times the driver paused
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return ctx.Err()
}

func (p *countingPacer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// page builds a timeline page of n image nodes with ids prefix-0..prefix-(n-1)
func page(prefix string, n int, hasNext bool, cursor string) *instagram.TimelinePage {
	nodes := make([]instagram.Node, n)
	for i := range nodes {
		nodes[i] = instagram.Node{
			ID:         fmt.Sprintf("%s-%d", prefix, i),
			Typename:   models.TypeImage,
			DisplayURL: fmt.Sprintf("https://cdn/%s-%d.jpg", prefix, i),
		}
	}
	return &instagram.TimelinePage{Nodes: nodes, HasNextPage: hasNext, EndCursor: cursor}
}
