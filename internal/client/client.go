// Package client talks to the stats JSON API on behalf of the views.
package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: 60 * time.Second})
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// File is a decoded export ready to be saved.
type File struct {
	Name     string
	MimeType string
	Content  []byte
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) error {
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			if eb.Error != "" {
				msg = eb.Error
			} else if eb.Detail != "" {
				msg = eb.Detail
			}
		}
		slog.Warn("stats api error", "op", op, "status", resp.StatusCode, "message", msg)
		return &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// CheckUsername asks whether a user exists. exists:false is returned as a
// normal response, not an error.
func (c *Client) CheckUsername(ctx context.Context, username string) (*models.CheckUsernameResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Message: "enter a valid username"}
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/check-username/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, &NetworkError{Op: "check username", Err: err}
	}

	var resp models.CheckUsernameResponse
	if err := c.do(ctx, "check username", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func monthsForm(username string, monthURLs []string) (url.Values, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &ValidationError{Message: "enter a valid username"}
	}
	if len(monthURLs) == 0 {
		return nil, &ValidationError{Message: "select at least one month"}
	}
	selected, err := json.Marshal(monthURLs)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("selected_months", string(selected))
	return form, nil
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values, out any) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, op, req, out)
}

// FetchGames downloads the games of the selected months. An empty month
// list is rejected without a network call.
func (c *Client) FetchGames(ctx context.Context, username string, monthURLs []string) (*models.DownloadGamesResponse, error) {
	form, err := monthsForm(username, monthURLs)
	if err != nil {
		return nil, err
	}

	var resp models.DownloadGamesResponse
	if err := c.postForm(ctx, "download games", "/api/download-games", form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Op: "download games", Message: orDefault(resp.Error, "could not fetch games")}
	}
	return &resp, nil
}

func (c *Client) FetchHeatmap(ctx context.Context, username string, monthURLs []string) (*models.HeatmapResponse, error) {
	form, err := monthsForm(username, monthURLs)
	if err != nil {
		return nil, err
	}

	var resp models.HeatmapResponse
	if err := c.postForm(ctx, "heatmap data", "/api/heatmap-data", form, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.HeatmapData == nil {
		return nil, &APIError{Op: "heatmap data", Message: orDefault(resp.Error, "could not fetch heatmap data")}
	}
	return &resp, nil
}

// DownloadFile fetches a stored export. The payload content is hex encoded.
func (c *Client) DownloadFile(ctx context.Context, filename string) (*File, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, &ValidationError{Message: "no file to download"}
	}
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/download-file/"+url.PathEscape(filename), nil)
	if err != nil {
		return nil, &NetworkError{Op: OpDownloadFile, Err: err}
	}

	var resp models.FileResponse
	if err := c.do(ctx, OpDownloadFile, req, &resp); err != nil {
		return nil, err
	}

	content, err := hex.DecodeString(resp.FileContent)
	if err != nil {
		return nil, &DecodeError{Op: OpDownloadFile, Err: err}
	}
	return &File{Name: resp.FileName, MimeType: resp.MimeType, Content: content}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
