package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the default upstream host
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint resolves a handle to an account id and profile fields
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// MediaEndpoint serves timeline media pages
	MediaEndpoint = "/graphql/query/"

	// MediaQueryHash identifies the timeline media query shape
	MediaQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	// MaxPageSize is the largest page the timeline query accepts
	MaxPageSize = 50
)

// mediaVariables is the JSON document sent in the variables parameter.
// After is null on the first page.
type mediaVariables struct {
	ID    string  `json:"id"`
	First int     `json:"first"`
	After *string `json:"after"`
}

// ProfileURL constructs the profile-info URL for a handle
func ProfileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), ProfileEndpoint, params.Encode())
}

// MediaURL constructs the timeline-media URL for one page. An empty cursor
// requests the first page. A first outside [1, MaxPageSize] is replaced by
// MaxPageSize.
func MediaURL(baseURL, userID string, first int, after string) (string, error) {
	if first <= 0 || first > MaxPageSize {
		first = MaxPageSize
	}

	vars := mediaVariables{ID: userID, First: first}
	if after != "" {
		vars.After = &after
	}
	encoded, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode variables: %w", err)
	}

	params := url.Values{}
	params.Set("query_hash", MediaQueryHash)
	params.Set("variables", string(encoded))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), MediaEndpoint, params.Encode()), nil
}

// SanitizeUsername trims whitespace, a leading @ and trailing slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
