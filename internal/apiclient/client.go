package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshPath = "/api/auth/refresh"

// ErrSessionExpired is returned when a request hit a 401 and the refresh
// call itself failed. There is no response to hand back in this path; the
// session is gone and the caller has to send the user through login again.
var ErrSessionExpired = errors.New("apiclient: session expired")

// Client is a thin wrapper over http.Client that keeps an authenticated
// cookie session against the backend API. On a 401 it runs the refresh
// endpoint once (coalesced across concurrent callers) and retries the
// original request exactly once. Any other status is returned unmodified
// so callers keep full control over status handling.
type Client struct {
	baseURL     string
	refreshPath string
	httpClient  *http.Client
	jar         http.CookieJar
	logger      *zap.Logger

	// refreshGroup coalesces concurrent refresh attempts: N requests that
	// fail with 401 at once share a single refresh call instead of racing
	// to consume the single-use refresh token.
	refreshGroup singleflight.Group

	onSessionExpired func()
}

type Option func(*Client)

// WithSessionExpiredHook registers the callback invoked when refresh fails,
// typically to route the user to the login screen.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

func WithRefreshPath(path string) Option {
	return func(c *Client) { c.refreshPath = path }
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:     baseURL,
		refreshPath: defaultRefreshPath,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		jar:    jar,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// StreamClient returns an http.Client sharing this client's cookie jar but
// without a request timeout, for long-lived streaming reads. Streaming
// requests do not go through the 401 refresh path.
func (c *Client) StreamClient() *http.Client {
	return &http.Client{Jar: c.jar}
}

// Do issues a JSON request. A nil body sends no payload. The default
// Content-Type is application/json; use headers to override or extend.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*http.Response, error) {
	build := func() (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}
	return c.doWithRefresh(ctx, build)
}

// DoJSON marshals payload and issues it with Do. A nil payload sends no
// body.
func (c *Client) DoJSON(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	return c.Do(ctx, method, path, body, nil)
}

// Upload issues a multipart form request. No JSON content type is forced;
// the multipart writer supplies the boundary-carrying content type.
func (c *Client) Upload(ctx context.Context, path, fieldName, fileName string, content io.Reader, fields map[string]string) (*http.Response, error) {
	// Buffer the form once so the request can be replayed after a refresh.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}
	formBody := buf.Bytes()
	contentType := writer.FormDataContentType()

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(formBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}
	return c.doWithRefresh(ctx, build)
}

// doWithRefresh is the shared request runner behind Do and Upload: issue the
// request, and on a 401 refresh the session once and re-issue it exactly
// once. A second 401 after refresh is returned as-is, never re-refreshed.
func (c *Client) doWithRefresh(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	req, err := build()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Debug("request unauthorized, refreshing session",
		zap.String("path", req.URL.Path))

	if err := c.refreshSession(ctx); err != nil {
		c.logger.Warn("session refresh failed", zap.Error(err))
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		return nil, ErrSessionExpired
	}

	retry, err := build()
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(retry)
}

// refreshSession runs POST {refreshPath}. Concurrent callers share a single
// in-flight call through the singleflight group.
func (c *Client) refreshSession(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.refreshPath, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("refresh request failed: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
		}
		c.logger.Debug("session refreshed")
		return nil, nil
	})
	return err
}
