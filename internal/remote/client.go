package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"go-pos-checkout/internal/config"
	"go-pos-checkout/internal/poserr"
)

const (
	HeaderDeviceID = "X-Device-ID"
	maxErrorBody   = 64 << 10
)

// Client talks to the back-office API. It implements the settings,
// transaction and product/stock contracts used by the checkout core.
type Client struct {
	baseURL    string
	httpClient *http.Client
	deviceID   string
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient builds a client from the remote section of the config.
func NewClient(cfg config.RemoteConfig, deviceID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		deviceID: deviceID,
		token:    cfg.APIToken,
		logger:   logger.Named("remote"),
	}
}

// SetSessionToken replaces the bearer token sent with every request.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends one request. It never retries: a failed financial call is
// reported to the caller, which decides what to do next.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: build %s %s: %w", method, path, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return poserr.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		c.logger.Warn("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg),
		)
		return poserr.Rejected(resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return poserr.Transport(err)
		}
		c.logger.Error("unreadable success response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
		perr := poserr.Rejected(resp.StatusCode, "The server returned a malformed response.")
		perr.Err = fmt.Errorf("%w: %v", poserr.ErrMalformedResponse, err)
		return perr
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sessionToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.deviceID != "" {
		req.Header.Set(HeaderDeviceID, c.deviceID)
	}
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Error)
}
