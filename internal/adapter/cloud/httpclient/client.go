// Package httpclient implements cloud.Adapter as JSON over HTTP against the
// cloudsync backend.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/domain"
)

// Client talks to the cloud backend on behalf of one signed-in device.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ cloud.Adapter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a client from the cloud config.
func New(cfg config.CloudConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type bookmarksRequest struct {
	Bookmarks []cloud.Bookmark `json:"bookmarks"`
}

type memorizationRequest struct {
	Items []cloud.MemorizationItem `json:"items"`
}

type readingRequest struct {
	Progress []cloud.ReadingProgress `json:"progress"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// PushBookmarks implements cloud.Adapter.
func (c *Client) PushBookmarks(ctx context.Context, userID string, bookmarks []cloud.Bookmark) error {
	return c.do(ctx, "pushBookmarks", http.MethodPost, userPath(userID, "bookmarks"), bookmarksRequest{Bookmarks: bookmarks}, nil)
}

// DeleteBookmark implements cloud.Adapter.
func (c *Client) DeleteBookmark(ctx context.Context, userID string, surahID, ayahNumber int) error {
	path := userPath(userID, "bookmarks", strconv.Itoa(surahID), strconv.Itoa(ayahNumber))
	return c.do(ctx, "deleteBookmark", http.MethodDelete, path, nil, nil)
}

// PushMemorization implements cloud.Adapter.
func (c *Client) PushMemorization(ctx context.Context, userID string, items []cloud.MemorizationItem) error {
	return c.do(ctx, "pushMemorization", http.MethodPost, userPath(userID, "memorization"), memorizationRequest{Items: items}, nil)
}

// PushReadingProgress implements cloud.Adapter.
func (c *Client) PushReadingProgress(ctx context.Context, userID string, progress []cloud.ReadingProgress) error {
	return c.do(ctx, "pushReadingProgress", http.MethodPost, userPath(userID, "reading-progress"), readingRequest{Progress: progress}, nil)
}

// PushSettings implements cloud.Adapter.
func (c *Client) PushSettings(ctx context.Context, userID string, settings cloud.Settings) error {
	return c.do(ctx, "pushSettings", http.MethodPut, userPath(userID, "settings"), settings, nil)
}

// FetchSnapshot implements cloud.Adapter.
func (c *Client) FetchSnapshot(ctx context.Context, userID string) (cloud.Snapshot, error) {
	var snap cloud.Snapshot
	if err := c.do(ctx, "fetchSnapshot", http.MethodGet, userPath(userID, "snapshot"), nil, &snap); err != nil {
		return cloud.Snapshot{}, err
	}
	return snap, nil
}

// Ping checks that the backend is reachable. It is the connectivity probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/live", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A cancelled caller is not a connectivity problem.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RemoteError{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func remoteError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := http.StatusText(resp.StatusCode)
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		msg = er.Error
	}

	rerr := &domain.RemoteError{Op: op, Status: resp.StatusCode, Message: msg}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errors.Join(rerr, domain.ErrUnauthorized)
	case http.StatusForbidden:
		return errors.Join(rerr, domain.ErrForbidden)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.Join(rerr, domain.ErrValidation)
	}
	return rerr
}

func userPath(userID string, parts ...string) string {
	segs := make([]string, 0, len(parts)+3)
	segs = append(segs, "", "v1", "users", url.PathEscape(userID))
	segs = append(segs, parts...)
	return strings.Join(segs, "/")
}
