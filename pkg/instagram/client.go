package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"igdash/pkg/config"
	"igdash/pkg/errors"
	"igdash/pkg/logger"
)

// Client talks to the Instagram web API. It performs exactly one HTTP request
// per call and never retries.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(cfg config.InstagramConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	// Accept-Encoding is left to the transport so gzip stays transparent.
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"x-ig-app-id":     cfg.AppID,
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL: baseURL,
		logger:  log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// FetchProfile resolves a handle to its profile user. The returned user
// always carries a non-empty id.
func (c *Client) FetchProfile(ctx context.Context, username string) (*ProfileUser, error) {
	if username == "" {
		return nil, &errors.MissingInputError{Field: "username"}
	}

	var resp ProfileResponse
	if err := c.getJSON(ctx, ProfileURL(c.baseURL, username), &resp); err != nil {
		c.logger.WithError(err).ErrorWithFields("failed to fetch user profile", map[string]interface{}{
			"username": username,
		})
		return nil, err
	}

	if resp.Data == nil || resp.Data.User == nil {
		return nil, &errors.MalformedResponseError{Field: "data.user"}
	}
	if resp.Data.User.ID == "" {
		return nil, &errors.MalformedResponseError{Field: "data.user.id"}
	}

	c.logger.DebugWithFields("fetched user profile", map[string]interface{}{
		"username": username,
		"user_id":  resp.Data.User.ID,
	})

	return resp.Data.User, nil
}

// FetchTimelinePage requests one page of an account's timeline media. An
// empty after requests the first page.
func (c *Client) FetchTimelinePage(ctx context.Context, userID string, first int, after string) (*TimelinePage, error) {
	if userID == "" {
		return nil, &errors.MissingInputError{Field: "userId"}
	}

	mediaURL, err := MediaURL(c.baseURL, userID, first, after)
	if err != nil {
		return nil, &errors.UpstreamError{Err: err}
	}

	var resp TimelineResponse
	if err := c.getJSON(ctx, mediaURL, &resp); err != nil {
		c.logger.WithError(err).ErrorWithFields("failed to fetch user media", map[string]interface{}{
			"user_id": userID,
			"after":   after,
		})
		return nil, err
	}

	if resp.Data == nil || resp.Data.User == nil {
		return nil, &errors.MalformedResponseError{Field: "data.user"}
	}
	media := resp.Data.User.EdgeOwnerToTimelineMedia
	if media == nil {
		return nil, &errors.MalformedResponseError{Field: "data.user.edge_owner_to_timeline_media"}
	}
	if media.PageInfo == nil {
		return nil, &errors.MalformedResponseError{Field: "data.user.edge_owner_to_timeline_media.page_info"}
	}

	page := &TimelinePage{
		Nodes:       make([]Node, 0, len(media.Edges)),
		HasNextPage: media.PageInfo.HasNextPage,
		TotalCount:  media.Count,
	}
	if media.PageInfo.EndCursor != nil {
		page.EndCursor = *media.PageInfo.EndCursor
	}
	for _, edge := range media.Edges {
		page.Nodes = append(page.Nodes, edge.Node)
	}

	c.logger.DebugWithFields("fetched user media", map[string]interface{}{
		"user_id":       userID,
		"edges":         len(page.Nodes),
		"has_next_page": page.HasNextPage,
	})

	return page, nil
}

// getJSON performs a GET and decodes a 2xx body into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errors.UpstreamError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnWithFields("unexpected API status", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    url,
		})
		return &errors.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.MalformedResponseError{Field: "body", Err: err}
	}

	return nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.UpstreamError{Err: err}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}
