package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const BaseURL = "https://api.chess.com/pub"

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(userAgent string, proxyURL string) *Client {
	return NewClientWithBaseURL(userAgent, proxyURL, BaseURL)
}

func NewClientWithBaseURL(userAgent string, proxyURL string, baseURL string) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" && proxyURL != "false" {
		if proxyParsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyParsed)
		}
	}

	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
	}
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chess.com api returned status %d for %s", e.Code, e.URL)
}

// StatusCode extracts the HTTP status of a StatusError, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("chess.com api error", "url", reqURL, "status", resp.StatusCode)
		return nil, &StatusError{URL: reqURL, Code: resp.StatusCode}
	}

	return body, nil
}

func (c *Client) playerURL(username string, suffix string) string {
	return c.baseURL + "/player/" + url.PathEscape(strings.ToLower(username)) + suffix
}

// MonthURL builds the archive URL for one month, in the same shape
// GetArchives returns.
func (c *Client) MonthURL(username string, year, month int) string {
	return c.playerURL(username, fmt.Sprintf("/games/%d/%02d", year, month))
}

// --- API Response Types ---

type ArchivesResponse struct {
	Archives []string `json:"archives"`
}

type MonthResponse struct {
	Games []Game `json:"games"`
}

type Player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

type Game struct {
	URL         string `json:"url"`
	PGN         string `json:"pgn"`
	TimeControl string `json:"time_control"`
	TimeClass   string `json:"time_class"`
	Rated       bool   `json:"rated"`
	EndTime     int64  `json:"end_time"`
	Rules       string `json:"rules"`
	ECO         string `json:"eco"`
	White       Player `json:"white"`
	Black       Player `json:"black"`
}

// --- API Methods ---

// GetPlayer returns the raw profile document.
func (c *Client) GetPlayer(ctx context.Context, username string) (map[string]any, error) {
	body, err := c.doRequest(ctx, c.playerURL(username, ""))
	if err != nil {
		return nil, err
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetPlayerStats(ctx context.Context, username string) (map[string]any, error) {
	body, err := c.doRequest(ctx, c.playerURL(username, "/stats"))
	if err != nil {
		return nil, err
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetArchives(ctx context.Context, username string) ([]string, error) {
	body, err := c.doRequest(ctx, c.playerURL(username, "/games/archives"))
	if err != nil {
		return nil, err
	}

	var resp ArchivesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Archives, nil
}

// GetMonthGames fetches one archive URL as returned by GetArchives.
func (c *Client) GetMonthGames(ctx context.Context, archiveURL string) ([]Game, error) {
	body, err := c.doRequest(ctx, archiveURL)
	if err != nil {
		return nil, err
	}

	var resp MonthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}
