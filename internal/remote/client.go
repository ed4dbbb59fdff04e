// Package remote provides an HTTP client for the media server's JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client provides access to a media server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter // nil = unlimited
}

// Config holds configuration for creating a client.
type Config struct {
	URL          string
	Timeout      time.Duration
	RateLimitQPS float64 // 0 disables client-side throttling
}

// New creates a new media server client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return nil, fmt.Errorf("server URL must include a host (e.g., http://localhost:8080)")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	if cfg.RateLimitQPS > 0 {
		burst := int(cfg.RateLimitQPS)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), burst)
	}
	return c, nil
}

// BaseURL returns the server base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request against the server. A non-nil payload
// is sent as a JSON body.
func (c *Client) doRequest(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Op: op, Err: err}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

// apiError represents an error body from the server. The media server uses
// {"error": ...} for JSON failures and plain text for http.Error.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleErrorResponse reads an error response and returns a *NetworkError.
func handleErrorResponse(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		if apiErr.Message != "" {
			return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Message}
		}
	}

	return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

// escapePath escapes each segment of a relative file path, keeping the
// separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// getJSON issues a GET and decodes a successful body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.doRequest(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return handleErrorResponse(op, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	// Unmarshal rejects trailing data after the value
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// FileList fetches the ordered file paths for a tag category.
func (c *Client) FileList(ctx context.Context, tag string) ([]string, error) {
	const op = "file list"
	var raw []*string
	if err := c.getJSON(ctx, op, "/api/filelist?category="+url.QueryEscape(tag), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		// JSON null is not an array of strings
		return nil, &DecodeError{Op: op, Err: fmt.Errorf("expected array, got null")}
	}
	paths := make([]string, len(raw))
	for i, p := range raw {
		if p == nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("element %d is null", i)}
		}
		paths[i] = *p
	}
	return paths, nil
}

// AllTags fetches every known tag.
func (c *Client) AllTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := c.getJSON(ctx, "all tags", "/api/alltags", &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// Metadata matches the server's file metadata response. Every field is optional.
type Metadata struct {
	FileName string    `json:"fileName,omitempty"`
	FileSize int64     `json:"fileSize,omitempty"`
	Created  time.Time `json:"created,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Make     string    `json:"make,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// Metadata fetches size, dimensions and dates for a file.
func (c *Client) Metadata(ctx context.Context, filePath string) (*Metadata, error) {
	var md Metadata
	if err := c.getJSON(ctx, "metadata", "/api/metadata/"+escapePath(filePath), &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// FileContent fetches the raw content of a (text) file.
func (c *Client) FileContent(ctx context.Context, filePath string) (string, error) {
	const op = "file content"
	resp, err := c.doRequest(ctx, op, http.MethodGet, "/file/"+escapePath(filePath), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", handleErrorResponse(op, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return string(data), nil
}

// tagRequest matches the server's tag add/remove request body.
type tagRequest struct {
	FilePath string `json:"filePath"`
	Tag      string `json:"tag"`
}

// tagResponse matches the server's tag add/remove response body.
type tagResponse struct {
	Success bool     `json:"success"`
	Tags    []string `json:"tags"`
	Error   string   `json:"error,omitempty"`
}

// AddTag adds a tag to a file and returns the server's canonical tag list.
func (c *Client) AddTag(ctx context.Context, filePath, tag string) ([]string, error) {
	return c.postTag(ctx, "add tag", "/api/addtag", filePath, tag)
}

// RemoveTag removes a tag from a file and returns the server's canonical tag list.
func (c *Client) RemoveTag(ctx context.Context, filePath, tag string) ([]string, error) {
	return c.postTag(ctx, "remove tag", "/api/removetag", filePath, tag)
}

func (c *Client) postTag(ctx context.Context, op, path, filePath, tag string) ([]string, error) {
	resp, err := c.doRequest(ctx, op, http.MethodPost, path, tagRequest{FilePath: filePath, Tag: tag})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, handleErrorResponse(op, resp)
	}

	var tr tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	if !tr.Success {
		msg := tr.Error
		if msg == "" {
			msg = "server reported failure"
		}
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if tr.Tags == nil {
		tr.Tags = []string{}
	}
	return tr.Tags, nil
}

// commentRequest matches the server's comment update body. Note the
// lowercase "filepath" key, which differs from the tag endpoints.
type commentRequest struct {
	FilePath string `json:"filepath"`
	Comment  string `json:"comment"`
}

// SaveComment replaces a file's comment. Any 2xx status is success.
func (c *Client) SaveComment(ctx context.Context, filePath, comment string) error {
	const op = "save comment"
	resp, err := c.doRequest(ctx, op, http.MethodPost, "/api/comment", commentRequest{FilePath: filePath, Comment: comment})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return handleErrorResponse(op, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// fileRequest is the body shared by quicklook and delete.
type fileRequest struct {
	FilePath string `json:"filePath"`
}

// statusResponse is the {success, error} body several endpoints return.
type statusResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// QuickLook asks the server to open the file in the host's previewer.
func (c *Client) QuickLook(ctx context.Context, filePath string) error {
	const op = "quicklook"
	resp, err := c.doRequest(ctx, op, http.MethodPost, "/api/quicklook", fileRequest{FilePath: filePath})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return handleErrorResponse(op, resp)
	}
	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	if sr.Success == nil || !*sr.Success {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: "server reported failure"}
	}
	return nil
}

// DeleteFile moves a file to the trash on the server. The server reports
// some failures (missing file, path outside the served directory) with a
// 2xx status and an "error" field, so both are checked.
func (c *Client) DeleteFile(ctx context.Context, filePath string) error {
	const op = "delete file"
	resp, err := c.doRequest(ctx, op, http.MethodPost, "/api/deletefile", fileRequest{FilePath: filePath})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return handleErrorResponse(op, resp)
	}

	body, _ := io.ReadAll(resp.Body)
	var sr statusResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &sr); err != nil {
			return &DecodeError{Op: op, Err: err}
		}
	}
	if sr.Error != "" {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: sr.Error}
	}
	if sr.Success != nil && !*sr.Success {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Message: "Unknown error"}
	}
	return nil
}

// Shutdown asks the server to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	const op = "shutdown"
	resp, err := c.doRequest(ctx, op, http.MethodPost, "/api/shutdown", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return handleErrorResponse(op, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
