package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"igdash/pkg/config"
	"igdash/pkg/errors"
	"igdash/pkg/logger"
	"igdash/pkg/models"
	"igdash/pkg/scraper"
)

type mockPipeline struct {
	mock.Mock
}

func (m *mockPipeline) Scrape(ctx context.Context, handle string) ([]models.Post, error) {
	args := m.Called(ctx, handle)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *mockPipeline) Ingest(ctx context.Context, handle string) (*scraper.IngestResult, error) {
	args := m.Called(ctx, handle)
	result, _ := args.Get(0).(*scraper.IngestResult)
	return result, args.Error(1)
}

func (m *mockPipeline) Profile(ctx context.Context, handle string) (*models.ProfileSummary, error) {
	args := m.Called(ctx, handle)
	summary, _ := args.Get(0).(*models.ProfileSummary)
	return summary, args.Error(1)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) PostsByUsername(ctx context.Context, username string) ([]models.StoredPost, error) {
	args := m.Called(ctx, username)
	posts, _ := args.Get(0).([]models.StoredPost)
	return posts, args.Error(1)
}

func (m *mockReader) Usernames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func newTestServer(pipeline Pipeline, reader Reader, cfg config.ServerConfig) (*Server, *logger.TestLogger) {
	log := logger.NewTestLogger()
	return New(pipeline, reader, cfg, nil, log), log
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&mockPipeline{}, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["storage"])
}

func TestScrape(t *testing.T) {
	pipeline := &mockPipeline{}
	posts := []models.Post{{PostID: "1", Type: models.TypeImage, TopComments: []string{}}, {PostID: "2", Type: models.TypeVideo, TopComments: []string{}}}
	pipeline.On("Scrape", mock.Anything, "alice").Return(posts, nil).Once()

	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/scrape", `{"userId":"alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Post
	decode(t, rec, &got)
	assert.Equal(t, posts, got)
	pipeline.AssertExpectations(t)
}

func TestScrapeErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"missing input", &errors.MissingInputError{Field: "userId"}, http.StatusBadRequest},
		{"upstream not found", &errors.UpstreamError{Status: 404, Body: "not found"}, http.StatusBadGateway},
		{"malformed response", &errors.MalformedResponseError{Field: "data.user"}, http.StatusBadGateway},
		{"malformed node", &errors.MalformedNodeError{Field: "id"}, http.StatusBadGateway},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &mockPipeline{}
			pipeline.On("Scrape", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			s, log := newTestServer(pipeline, nil, config.ServerConfig{})
			rec := do(t, s, http.MethodPost, "/api/scrape", `{"userId":"x"}`)

			assert.Equal(t, tt.status, rec.Code)
			var body errorResponse
			decode(t, rec, &body)
			assert.Equal(t, tt.err.Error(), body.Error)
			assert.Equal(t, tt.status >= 500, log.HasError())
		})
	}
}

func TestScrapeEmptyBodyReachesPipeline(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Scrape", mock.Anything, "").Return(nil, &errors.MissingInputError{Field: "userId"}).Once()

	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/scrape", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"userId is required"}`, rec.Body.String())
}

func TestScrapeInvalidBody(t *testing.T) {
	pipeline := &mockPipeline{}
	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/scrape", `{"userId":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pipeline.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
}

func TestScrapeIgnoresClientCancellation(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Scrape", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), "alice").Return([]models.Post{}, nil).Once()

	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"userId":"alice"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	pipeline.AssertExpectations(t)
}

func TestIngest(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Ingest", mock.Anything, "alice").Return(&scraper.IngestResult{
		Username: "alice",
		Inserted: 1,
		Posts:    []models.Post{{PostID: "1", Type: models.TypeImage, TopComments: []string{}}},
	}, nil).Once()

	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/ingest", `{"userId":"alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got scraper.IngestResult
	decode(t, rec, &got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, 1, got.Inserted)
	assert.Len(t, got.Posts, 1)
}

func TestIngestStorageFailure(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Ingest", mock.Anything, "alice").Return(nil, errors.NewStorageError("insert", scraper.ErrNoStore)).Once()

	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/ingest", `{"userId":"alice"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no storage backend configured")
}

func TestProfile(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Profile", mock.Anything, "alice").Return(&models.ProfileSummary{
		ProfilePicURL:  "https://cdn/hd.jpg",
		FollowersCount: 5,
	}, nil).Once()

	s, _ := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/profile", `{"userId":"alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.ProfileSummary
	decode(t, rec, &got)
	assert.Equal(t, "https://cdn/hd.jpg", got.ProfilePicURL)
	assert.EqualValues(t, 5, got.FollowersCount)
}

func TestData(t *testing.T) {
	reader := &mockReader{}
	stored := []models.StoredPost{{
		Post:       models.Post{PostID: "1", Type: models.TypeImage, TopComments: []string{}},
		Username:   "alice",
		IngestedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	reader.On("PostsByUsername", mock.Anything, "alice").Return(stored, nil).Once()
	reader.On("PostsByUsername", mock.Anything, "bob").Return(nil, nil).Once()

	s, _ := newTestServer(&mockPipeline{}, reader, config.ServerConfig{})

	rec := do(t, s, http.MethodGet, "/api/data?username=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got dataResponse
	decode(t, rec, &got)
	assert.Equal(t, stored, got.Posts)

	rec = do(t, s, http.MethodGet, "/api/data?username=bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/data", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"username is required"}`, rec.Body.String())
}

func TestDataWithoutStore(t *testing.T) {
	s, _ := newTestServer(&mockPipeline{}, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/api/data?username=alice", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNames(t *testing.T) {
	reader := &mockReader{}
	reader.On("Usernames", mock.Anything).Return([]string{"alice", "bob"}, nil).Once()

	s, _ := newTestServer(&mockPipeline{}, reader, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/api/names", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"usernames":["alice","bob"],"success":true}`, rec.Body.String())
}

func TestNamesEmpty(t *testing.T) {
	reader := &mockReader{}
	reader.On("Usernames", mock.Anything).Return([]string{}, nil).Once()

	s, _ := newTestServer(&mockPipeline{}, reader, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/api/names", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"usernames":[],"success":true}`, rec.Body.String())
}

func TestNamesFailure(t *testing.T) {
	reader := &mockReader{}
	reader.On("Usernames", mock.Anything).Return(nil, errors.NewStorageError("distinct", stderrors.New("conn refused"))).Once()

	s, _ := newTestServer(&mockPipeline{}, reader, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/api/names", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var got namesFailure
	decode(t, rec, &got)
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "conn refused")
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(&mockPipeline{}, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/api/scrape", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	var got errorResponse
	decode(t, rec, &got)
	assert.Equal(t, "method not allowed", got.Error)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(&mockPipeline{}, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodGet, "/api/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestIngestRateLimit(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Scrape", mock.Anything, "alice").Return([]models.Post{}, nil)

	s, log := newTestServer(pipeline, nil, config.ServerConfig{IngestPerMinute: 1, IngestBurst: 1})

	rec := do(t, s, http.MethodPost, "/api/scrape", `{"userId":"alice"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/scrape", `{"userId":"alice"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, log.HasMessage("ingestion rate limit exceeded"))
	pipeline.AssertNumberOfCalls(t, "Scrape", 1)
}

func TestRecoverer(t *testing.T) {
	pipeline := &mockPipeline{}
	pipeline.On("Profile", mock.Anything, "alice").Run(func(mock.Arguments) {
		panic("nil map")
	}).Return(nil, nil)

	s, log := newTestServer(pipeline, nil, config.ServerConfig{})
	rec := do(t, s, http.MethodPost, "/api/profile", `{"userId":"alice"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.True(t, log.HasMessage("handler panic"))
}

func TestStartStop(t *testing.T) {
	s, _ := newTestServer(&mockPipeline{}, nil, config.ServerConfig{Addr: "127.0.0.1:0"})
	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestNewReporterWithoutDSN(t *testing.T) {
	r, err := NewReporter(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopReporter{}, r)
}
