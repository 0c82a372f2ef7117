package scraper

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"igdash/pkg/config"
	"igdash/pkg/errors"
	"igdash/pkg/instagram"
	"igdash/pkg/logger"
)

func paginationConfig(maxPosts, pageSize int) config.PaginationConfig {
	return config.PaginationConfig{MaxPosts: maxPosts, PageSize: pageSize, InterRequestDelay: time.Second}
}

func TestCollectTwoPages(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 50, true, "C1"), nil).Once()
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "C1").Return(page("b", 10, false, ""), nil).Once()
	pacer := &countingPacer{}

	posts, err := NewPaginator(client, pacer, paginationConfig(200, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
	require.NoError(t, err)

	require.Len(t, posts, 60)
	assert.Equal(t, "a-0", posts[0].PostID)
	assert.Equal(t, "a-49", posts[49].PostID)
	assert.Equal(t, "b-0", posts[50].PostID)
	assert.Equal(t, "b-9", posts[59].PostID)
	assert.Equal(t, 1, pacer.count(), "no pause after the last page")
	client.AssertExpectations(t)
}

func TestCollectSingleRequestWhenNoNextPage(t *testing.T) {
	for _, edges := range []int{0, 1, 49, 50} {
		t.Run(fmt.Sprintf("%d edges", edges), func(t *testing.T) {
			client := &mockClient{}
			client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", edges, false, "C1"), nil).Once()
			pacer := &countingPacer{}

			posts, err := NewPaginator(client, pacer, paginationConfig(50, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
			require.NoError(t, err)

			assert.Len(t, posts, edges)
			assert.Zero(t, pacer.count())
			client.AssertNumberOfCalls(t, "FetchTimelinePage", 1)
		})
	}
}

func TestCollectTruncatesToCap(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 50, true, "C1"), nil).Once()
	pacer := &countingPacer{}

	posts, err := NewPaginator(client, pacer, paginationConfig(30, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
	require.NoError(t, err)

	require.Len(t, posts, 30)
	assert.Equal(t, "a-29", posts[29].PostID)
	assert.Zero(t, pacer.count())
	client.AssertNumberOfCalls(t, "FetchTimelinePage", 1)
}

func TestCollectCapAcrossPages(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 10, "").Return(page("a", 10, true, "C1"), nil).Once()
	client.On("FetchTimelinePage", mock.Anything, "42", 10, "C1").Return(page("b", 10, true, "C2"), nil).Once()
	pacer := &countingPacer{}

	posts, err := NewPaginator(client, pacer, paginationConfig(15, 10), logger.NewTestLogger()).Collect(context.Background(), "42")
	require.NoError(t, err)

	assert.Len(t, posts, 15)
	assert.Equal(t, 1, pacer.count())
	client.AssertExpectations(t)
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 0, true, "C1"), nil).Once()
	pacer := &countingPacer{}

	posts, err := NewPaginator(client, pacer, paginationConfig(200, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
	require.NoError(t, err)

	assert.Empty(t, posts)
	assert.Zero(t, pacer.count())
	client.AssertNumberOfCalls(t, "FetchTimelinePage", 1)
}

func TestCollectStopsOnRepeatedCursor(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 5, true, "C1"), nil).Once()
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "C1").Return(page("b", 5, true, "C1"), nil).Once()
	log := logger.NewTestLogger()

	posts, err := NewPaginator(client, &countingPacer{}, paginationConfig(200, 50), log).Collect(context.Background(), "42")
	require.NoError(t, err)

	assert.Len(t, posts, 10)
	assert.True(t, log.HasMessage("cursor did not advance, stopping"))
	client.AssertExpectations(t)
}

func TestCollectStopsOnMissingCursor(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 5, true, ""), nil).Once()

	posts, err := NewPaginator(client, &countingPacer{}, paginationConfig(200, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, posts, 5)
	client.AssertNumberOfCalls(t, "FetchTimelinePage", 1)
}

func TestCollectDiscardsPartialResultsOnFailure(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 50, true, "C1"), nil).Once()
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "C1").
		Return(nil, &errors.UpstreamError{Status: http.StatusTooManyRequests, Body: "wait"}).Once()

	posts, err := NewPaginator(client, &countingPacer{}, paginationConfig(200, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
	assert.Nil(t, posts)
	assert.Equal(t, http.StatusTooManyRequests, errors.UpstreamStatus(err))
	client.AssertExpectations(t)
}

func TestCollectFailsOnMalformedNode(t *testing.T) {
	bad := page("a", 3, false, "")
	bad.Nodes[1].Typename = ""

	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(bad, nil).Once()

	posts, err := NewPaginator(client, &countingPacer{}, paginationConfig(200, 50), logger.NewTestLogger()).Collect(context.Background(), "42")
	assert.Nil(t, posts)
	assert.Equal(t, errors.ErrorTypeMalformedNode, errors.TypeOf(err))
}

func TestCollectStopsWhenPacerFails(t *testing.T) {
	client := &mockClient{}
	client.On("FetchTimelinePage", mock.Anything, "42", 50, "").Return(page("a", 50, true, "C1"), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	posts, err := NewPaginator(client, &countingPacer{}, paginationConfig(200, 50), logger.NewTestLogger()).Collect(ctx, "42")
	assert.Nil(t, posts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPaginatorDefaults(t *testing.T) {
	p := NewPaginator(&mockClient{}, nil, config.PaginationConfig{PageSize: 500}, logger.NewTestLogger())
	assert.Equal(t, DefaultMaxPosts, p.maxPosts)
	assert.Equal(t, instagram.MaxPageSize, p.pageSize)
	assert.NotNil(t, p.pacer)
}
