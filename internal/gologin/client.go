// Package gologin is a client for the GoLogin browser profile API. Profile
// payloads are opaque documents: beyond the identity fields the server
// passes them through unmodified, so upstream schema changes never require
// a client update.
package gologin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the GoLogin API.
	DefaultBaseURL = "https://api.gologin.com"

	// DefaultTimeout for API requests.
	DefaultTimeout = 30 * time.Second
)

// Profile is an opaque profile document. "id" and "name" are the only keys
// the client itself reads.
type Profile map[string]any

// ID returns the profile's id, or "" when absent.
func (p Profile) ID() string {
	if id, ok := p["id"].(string); ok {
		return id
	}
	return ""
}

// Name returns the profile's name, or "" when absent.
func (p Profile) Name() string {
	if name, ok := p["name"].(string); ok {
		return name
	}
	return ""
}

// ProfileList is the response of the list endpoint.
type ProfileList struct {
	Profiles         []Profile `json:"profiles"`
	AllProfilesCount int       `json:"allProfilesCount"`
}

// Client accesses the GoLogin API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a GoLogin API client.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// ListProfiles returns all profiles.
func (c *Client) ListProfiles(ctx context.Context) (*ProfileList, error) {
	var list ProfileList
	if err := c.do(ctx, http.MethodGet, "/browser/v2", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetProfile returns one profile by ID.
func (c *Client) GetProfile(ctx context.Context, id string) (Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/browser/"+id, nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateProfile creates a profile from the given document. Fields the API
// requires but the document omits are filled with working defaults.
func (c *Client) CreateProfile(ctx context.Context, doc Profile) (Profile, error) {
	payload := withCreateDefaults(doc)

	var created Profile
	if err := c.do(ctx, http.MethodPost, "/browser/custom", payload, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProfile replaces a profile's document.
func (c *Client) UpdateProfile(ctx context.Context, id string, doc Profile) (Profile, error) {
	var updated Profile
	if err := c.do(ctx, http.MethodPut, "/browser/"+id, doc, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProfile deletes a profile by ID.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/browser/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gologin API returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// withCreateDefaults returns a copy of doc with the fields the create
// endpoint rejects when missing.
func withCreateDefaults(doc Profile) Profile {
	payload := Profile{}
	for k, v := range doc {
		payload[k] = v
	}

	if _, ok := payload["browserType"]; !ok {
		payload["browserType"] = "chrome"
	}
	if _, ok := payload["chromeExtensions"]; !ok {
		payload["chromeExtensions"] = []string{}
	}

	navigator, _ := payload["navigator"].(map[string]any)
	merged := map[string]any{
		"userAgent":  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.6998.36 Safari/537.36",
		"resolution": "1280x720",
		"language":   "en-US",
		"platform":   "Win32",
	}
	for k, v := range navigator {
		merged[k] = v
	}
	payload["navigator"] = merged

	if _, ok := payload["webglParams"]; !ok {
		payload["webglParams"] = map[string]any{
			"glCanvas": "webgl2",
			"supportedFunctions": []map[string]any{
				{"name": "beginQuery", "supported": true},
			},
			"glParamValues": []map[string]any{
				{"name": "ALIASED_LINE_WIDTH_RANGE", "value": map[string]any{"0": 1, "1": 8}},
			},
			"antialiasing":            true,
			"textureMaxAnisotropyExt": 16,
			"shaiderPrecisionFormat":  "highp/highp",
			"extensions":              []string{"EXT_color_buffer_float"},
		}
	}

	return payload
}
