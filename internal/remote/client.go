// Package remote calls the storefront backend's wishlist, review and
// recently-viewed endpoints on behalf of one browsing session.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

// HTTPDoer executes HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// TokenFunc returns the bearer token to send, or "" for anonymous calls.
type TokenFunc func(ctx context.Context) string

// ErrRejected is returned when the backend answers 2xx with success=false.
var ErrRejected = errors.New("request rejected by backend")

// envelope is the body shape of every backend response.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client sends authenticated JSON requests to the backend API and unwraps its
// response envelope. A 401 from any endpoint fires the unauthorized handler
// before the error is returned.
type Client struct {
	baseURL        string
	http           HTTPDoer
	token          TokenFunc
	logger         *slog.Logger
	onUnauthorized atomic.Pointer[func(context.Context)]
}

// NewClient creates a client for the API rooted at baseURL (for example
// "http://backend:5000/api"). A nil token sends every request anonymously.
func NewClient(baseURL string, doer HTTPDoer, token TokenFunc, logger *slog.Logger) *Client {
	if token == nil {
		token = func(context.Context) string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		token:   token,
		logger:  logger,
	}
}

// OnUnauthorized registers fn to run whenever the backend answers 401.
func (c *Client) OnUnauthorized(fn func(context.Context)) {
	c.onUnauthorized.Store(&fn)
}

// call sends in (when non-nil) as the JSON body of method path and decodes
// the envelope's data into out (when non-nil). service names the endpoint
// family in errors.
func (c *Client) call(ctx context.Context, service, method, path string, in, out any) (err error) {
	var body []byte
	if in != nil {
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal %s request: %w", service, err)
		}
	}

	req, err := httpclient.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	ctx, span := tracing.StartBackendCall(ctx, service, method, path, req.Header)
	status := 0
	defer func() { tracing.EndBackendCall(span, status, err) }()

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("call %s service: %w", service, ctxErr)
		}
		c.logger.WarnContext(ctx, "backend call failed",
			slog.String("service", service),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperrors.Unavailable(service+" service unavailable", err)
	}

	status = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized {
			if fn := c.onUnauthorized.Load(); fn != nil {
				(*fn)(ctx)
			}
		}
		attrs := []any{
			slog.String("service", service),
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		}
		// 4xx answers are ordinary outcomes (not found, stale token).
		if httpclient.IsClientError(resp.StatusCode) {
			c.logger.DebugContext(ctx, "backend rejected request", attrs...)
		} else {
			c.logger.WarnContext(ctx, "backend error response", attrs...)
		}
		return httpclient.ParseResponseError(resp, service)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", service, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("decode %s response: %w", service, err)
		}
		if !env.Success {
			return fmt.Errorf("%s: %w: %s", service, ErrRejected, env.Message)
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", service, err)
	}
	return nil
}
