// Package proxysource fetches residential proxy endpoints from the upstream
// extraction API. A mock mode generates synthetic endpoints for environments
// without upstream access; it is enabled only by explicit configuration.
package proxysource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/warmloop/warmloop/internal/models"
)

const (
	// DefaultBaseURL is the upstream proxy extraction API.
	DefaultBaseURL = "https://info.proxy.abcproxy.com"

	// DefaultTimeout for upstream requests.
	DefaultTimeout = 30 * time.Second
)

// Endpoint is one proxy endpoint as returned by the source.
type Endpoint struct {
	Host     string
	Port     int
	Country  string
	Protocol models.ProxyProtocol
}

// Client fetches proxy endpoints from the extraction API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	mock       bool
}

// apiResponse is the upstream extractProxyIp envelope.
type apiResponse struct {
	Code      int    `json:"code"`
	Success   bool   `json:"success"`
	Msg       string `json:"msg"`
	RequestIP string `json:"request_ip"`
	Data      []struct {
		IP   string `json:"ip"`
		Port int    `json:"port"`
	} `json:"data"`
}

// NewClient creates a proxy source client. When mock is true every call
// returns generated endpoints and the upstream is never contacted.
func NewClient(baseURL string, mock bool, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if mock {
		logger.Info("proxy source running in mock mode")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
		mock:       mock,
	}
}

// GetProxies fetches up to limit socks5 endpoints for a country region code
// (e.g. "us", "in").
func (c *Client) GetProxies(ctx context.Context, country string, limit int) ([]Endpoint, error) {
	if country == "" {
		country = "us"
	}
	if limit <= 0 {
		limit = 100
	}

	if c.mock {
		return c.mockEndpoints(country, limit), nil
	}

	params := url.Values{}
	params.Set("regions", country)
	params.Set("num", strconv.Itoa(limit))
	params.Set("protocol", "socks5")
	params.Set("return_type", "json")
	params.Set("lh", "4")
	params.Set("mode", "1")

	reqURL := fmt.Sprintf("%s/extractProxyIp?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !apiResp.Success || apiResp.Code != 0 || apiResp.Data == nil {
		if apiResp.Msg == "please add this ip to your ip whitelist" {
			c.logger.Error("request IP is not in the upstream whitelist",
				"request_ip", apiResp.RequestIP)
		}
		return nil, fmt.Errorf("proxy source error: %s (code %d)", apiResp.Msg, apiResp.Code)
	}

	endpoints := make([]Endpoint, 0, len(apiResp.Data))
	for _, item := range apiResp.Data {
		endpoints = append(endpoints, Endpoint{
			Host:     item.IP,
			Port:     item.Port,
			Country:  country,
			Protocol: models.ProxyProtocolSOCKS5,
		})
	}

	return endpoints, nil
}

// CreateSessionProxy returns a single endpoint suitable for a sticky session
// of the given duration. The upstream bounds sessions to 1..120 minutes.
func (c *Client) CreateSessionProxy(ctx context.Context, minutes int) (*Endpoint, error) {
	if minutes < 1 || minutes > 120 {
		return nil, fmt.Errorf("session time must be between 1 and 120 minutes, got %d", minutes)
	}

	if c.mock {
		endpoints := c.mockEndpoints("us", 1)
		return &endpoints[0], nil
	}

	endpoints, err := c.GetProxies(ctx, "us", 1)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no proxies available for session")
	}

	return &endpoints[0], nil
}

func (c *Client) mockEndpoints(country string, limit int) []Endpoint {
	endpoints := make([]Endpoint, limit)
	for i := range endpoints {
		endpoints[i] = Endpoint{
			Host:     fmt.Sprintf("192.168.%d.%d", rand.Intn(255), rand.Intn(255)),
			Port:     10000 + rand.Intn(5000),
			Country:  country,
			Protocol: models.ProxyProtocolSOCKS5,
		}
	}
	return endpoints
}
