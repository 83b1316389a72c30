package backend

import (
	"bytes"
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

	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
	"github.com/rendezvous-app/webclient/pkg/requestid"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 * 1024

// Client talks to the notifications API.
type Client struct {
	base      *url.URL
	token     string
	userAgent string
	http      *http.Client
	stream    *http.Client
	logger    *slog.Logger
}

// New creates a client for cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	headerTimeout := cfg.StreamHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = 10 * time.Second
	}

	c := &Client{
		base:      base,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		stream: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: headerTimeout,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("backend"))
	return c, nil
}

type historyResponse struct {
	Data []json.RawMessage `json:"data"`
}

// History loads the stored notifications for role, newest first. Records that
// cannot be decoded are logged and skipped; a missing createdAt becomes the
// time of receipt.
func (c *Client) History(ctx context.Context, role notifications.Role) ([]notifications.Notification, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/notifications", url.Values{"role": {role.String()}}, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var out historyResponse
	if err := c.do(c.http, req, &out); err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]notifications.Notification, 0, len(out.Data))
	for i, raw := range out.Data {
		var n notifications.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable notification",
				logger.Role(role),
				slog.Int("index", i),
				logger.Error(err),
			)
			continue
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		items = append(items, n)
	}
	return items, nil
}

type markReadRequest struct {
	NotificationID string             `json:"notificationId"`
	UserType       notifications.Role `json:"userType"`
}

// MarkRead persists the read flag of one notification.
func (c *Client) MarkRead(ctx context.Context, id string, role notifications.Role) error {
	body, err := json.Marshal(markReadRequest{NotificationID: id, UserType: role})
	if err != nil {
		return fmt.Errorf("backend: encode mark-read request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/notifications/mark-read", nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(c.http, req, nil)
}

// MarkAllRead persists the read flag of every notification for role in one request.
func (c *Client) MarkAllRead(ctx context.Context, role notifications.Role) error {
	form := url.Values{
		"intent":   {"markAllRead"},
		"userType": {role.String()},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/notifications", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(c.http, req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestid.Set(req)
	return req, nil
}

// do executes req and decodes a 2xx JSON body into out when out is not nil.
func (c *Client) do(client *http.Client, req *http.Request, out any) error {
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(req.Context(), "backend request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", req.Header.Get(requestid.Header)),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrDecodeResponse, err)
	}
	return nil
}

// readAPIError builds an *APIError from a failed response. It understands
// {"error":{"code":..,"message":..}}, {"code":..,"message":..} and
// {"error":".."} bodies and falls back to the raw text.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code, apiErr.Message = envelope.Code, envelope.Message
		if len(envelope.Error) > 0 {
			var nested struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			var text string
			switch {
			case json.Unmarshal(envelope.Error, &nested) == nil:
				apiErr.Code, apiErr.Message = nested.Code, nested.Message
			case json.Unmarshal(envelope.Error, &text) == nil:
				apiErr.Message = text
			}
		}
		if apiErr.Message != "" || apiErr.Code != "" {
			return apiErr
		}
	}

	msg := strings.TrimSpace(strings.ReplaceAll(string(body), "\n", " "))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	apiErr.Message = msg
	return apiErr
}
