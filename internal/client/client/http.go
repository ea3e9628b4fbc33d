package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type HTTPClient struct {
	baseURL        string
	http           *http.Client
	store          SessionStore
	onUnauthorized func(ctx context.Context)
	log            logging.Logger
}

type Option func(*HTTPClient)

// WithUnauthorizedHook sets fn to run after a 401 has cleared local state.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l.With("component", "gateway") }
}

// WithHTTPClient uses a copy of hc as the underlying client. The copy's
// Timeout is set from NewHTTPClient; hc itself is left alone.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		cp := *hc
		c.http = &cp
	}
}

func NewHTTPClient(baseURL string, timeout time.Duration, st SessionStore, opts ...Option) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}

	c := &HTTPClient{
		baseURL: base,
		http:    cleanhttp.DefaultPooledClient(),
		store:   st,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.http.Timeout = timeout
	return c, nil
}

// do sends one request. in, when non-nil, is encoded as the JSON body; out,
// when non-nil, receives the decoded 2xx body.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	reqID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, reqID)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	log := c.log.With("method", method, "path", path)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		log.Warn(ctx, "request failed", "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	log.Debug(ctx, "request done", "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized(ctx, log)
		} else if resp.StatusCode >= 500 {
			log.Error(ctx, "server error", "status", resp.StatusCode, "message", serr.Message)
		}
		return serr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		log.Warn(ctx, "unreadable response", "status", resp.StatusCode, "error", err)
		return &DecodeError{StatusCode: resp.StatusCode, Op: method + " " + path, Err: err}
	}
	return nil
}

// handleUnauthorized tears the session down. It runs on a context detached
// from the caller's cancellation so a late 401 still clears local state.
func (c *HTTPClient) handleUnauthorized(ctx context.Context, log logging.Logger) {
	log.Warn(ctx, "unauthorized response, clearing session")

	cleanupCtx := context.WithoutCancel(ctx)
	if err := c.store.ClearAll(cleanupCtx); err != nil {
		log.Error(ctx, "clear session", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(cleanupCtx)
	}
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	// plain-text bodies are passed through; HTML error pages are not
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
