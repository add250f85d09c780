// Package client is a small Go client for the Aurora feed HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/SlpAus/aurora-feed-backend/internal/feed"
	"github.com/SlpAus/aurora-feed-backend/internal/reaction"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New 创建客户端。baseURL 包含服务器配置的路由前缀，例如 http://localhost:8080/api
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// GetDailyContent 获取当天的内容；服务器返回空响应体时得到一个空的 ContentFeed
func (c *Client) GetDailyContent(ctx context.Context) (*feed.ContentFeed, error) {
	body, err := c.do(ctx, http.MethodGet, "/GetDailyContent")
	if err != nil {
		return nil, err
	}

	out := &feed.ContentFeed{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decode daily content: %w", err)
	}
	return out, nil
}

// React records one uplift for the article and returns the new count.
func (c *Client) React(ctx context.Context, articleID string) (int64, error) {
	body, err := c.do(ctx, http.MethodPost, "/articles/"+url.PathEscape(articleID)+"/react")
	if err != nil {
		return 0, err
	}

	var resp reaction.ReactResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode react response: %w", err)
	}
	return resp.UpliftCount, nil
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, &StatusError{Method: method, URL: req.URL.String(), StatusCode: res.StatusCode}
	}
	return io.ReadAll(res.Body)
}
