package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/voiceroll/voiceroll/internal/client/auth"
	"github.com/voiceroll/voiceroll/internal/common"
	"github.com/voiceroll/voiceroll/internal/logging"
)

const (
	defaultTimeout     = 30 * time.Second
	healthProbeTimeout = 5 * time.Second
)

// HTTPClient is the resilient request layer. Every outbound call carries the
// current credential's token; failures are handled by two composed policies,
// in this fixed order:
//
//  1. Auth expiry: a 401 triggers exactly one (single-flighted) token
//     refresh and one replay. A second 401 for the same request, or a
//     refresh failure, destroys the credential and surfaces
//     common.ErrSessionExpired.
//  2. Transient failures: network errors and 5xx responses are replayed
//     with linear backoff, bounded by the RetryPolicy.
//
// Hard client errors (4xx other than 401) are surfaced immediately, never
// retried. Every terminal failure is an *Error.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	creds   *auth.Store
	policy  RetryPolicy
	log     logging.Logger
}

type Option func(*HTTPClient)

// WithRetryPolicy overrides the transient-failure policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *HTTPClient) { c.policy = p }
}

// WithTimeout overrides the overall per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

func NewHTTPClient(baseURL string, creds *auth.Store, log logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		creds:   creds,
		policy:  DefaultRetryPolicy(),
		log:     log.With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callOptions are per-call overrides for the verb methods.
type callOptions struct {
	timeout time.Duration
	noAuth  bool
}

type CallOption func(*callOptions)

// WithCallTimeout bounds a single call tighter than the client default.
func WithCallTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithoutAuth marks a call as unauthenticated: no token is attached and a
// 401 is a plain domain error rather than an expiry signal. Used for login
// and similar pre-session endpoints.
func WithoutAuth() CallOption {
	return func(o *callOptions) { o.noAuth = true }
}

// pendingRequest captures one request for replay: the auth-expiry policy may
// replay it once, the transient policy up to MaxRetries times. Body is held
// as bytes so the request can be rebuilt for every replay.
type pendingRequest struct {
	id          string
	method      string
	path        string
	body        []byte
	contentType string
	attempts    uint64
	authRetried bool
	noAuth      bool
}

func (c *HTTPClient) Get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodGet, path, nil, "", out, opts...)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	b, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, path, b, "application/json", out, opts...)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	b, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPut, path, b, "application/json", out, opts...)
}

func (c *HTTPClient) Delete(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.call(ctx, http.MethodDelete, path, nil, "", out, opts...)
}

// Upload sends a multipart request with the given form fields and one file
// part. The multipart body is built once so replays resend identical bytes.
func (c *HTTPClient) Upload(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file []byte, out any, opts ...CallOption) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(file); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.call(ctx, http.MethodPost, path, buf.Bytes(), w.FormDataContentType(), out, opts...)
}

// Download fetches raw bytes from path.
func (c *HTTPClient) Download(ctx context.Context, path string, opts ...CallOption) ([]byte, error) {
	var raw []byte
	if err := c.call(ctx, http.MethodGet, path, nil, "", &raw, opts...); err != nil {
		return nil, err
	}
	return raw, nil
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return b, nil
}

func (c *HTTPClient) call(ctx context.Context, method, path string, body []byte, contentType string, out any, opts ...CallOption) error {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	if co.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, co.timeout)
		defer cancel()
	}

	pr := &pendingRequest{
		id:          uuid.NewString(),
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		noAuth:      co.noAuth,
	}

	err := retry.Do(ctx, c.policy.backoff(), func(ctx context.Context) error {
		err := c.send(ctx, pr, out)
		if err == nil {
			return nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.retryable() {
			c.log.Debug(ctx, "transient failure, scheduling replay",
				"request_id", pr.id, "method", method, "path", path,
				"attempt", pr.attempts, "status", apiErr.Status)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	// retry.Do surfaces the context error when the deadline fires during a
	// backoff wait; normalize it like any other network-class failure.
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return networkError()
		}
		return err
	}

	c.log.Warn(ctx, "request failed",
		"request_id", pr.id, "method", method, "path", path,
		"attempts", pr.attempts, "status", apiErr.Status, "error", apiErr.Message)
	return apiErr
}

// send performs one transmission of pr, applying the auth-expiry policy
// inline: the refresh-and-replay happens here, before the transient policy
// in call ever sees the outcome.
func (c *HTTPClient) send(ctx context.Context, pr *pendingRequest, out any) error {
	pr.attempts++

	req, err := http.NewRequestWithContext(ctx, pr.method, c.baseURL+pr.path, bytes.NewReader(pr.body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if pr.contentType != "" {
		req.Header.Set("Content-Type", pr.contentType)
	}
	req.Header.Set(common.RequestIDHeaderName, pr.id)
	if !pr.noAuth {
		if token := c.creds.Token(); token != "" {
			req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError()
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !pr.noAuth:
		if pr.authRetried {
			// Second rejection for this request: the refreshed token is not
			// accepted either, so the session is gone for good.
			_ = c.creds.Clear(ctx)
			return sessionExpiredError(resp.StatusCode, body)
		}
		pr.authRetried = true

		c.log.Debug(ctx, "unauthenticated response, refreshing token", "request_id", pr.id, "path", pr.path)
		if _, err := c.creds.Refresh(ctx, c.refreshCredential); err != nil {
			return sessionExpiredError(resp.StatusCode, body)
		}
		return c.send(ctx, pr, out)

	case resp.StatusCode >= 500:
		return serverError(resp.StatusCode, body)

	case resp.StatusCode >= 400:
		return domainError(resp.StatusCode, body)
	}

	return decodeResponse(body, out)
}

func decodeResponse(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// refreshCredential is the fetch function handed to the credential store's
// single-flight Refresh. It bypasses both failure policies: a refresh that
// does not succeed immediately fails closed.
func (c *HTTPClient) refreshCredential(ctx context.Context) (*auth.Credential, error) {
	token := c.creds.Token()
	if token == "" {
		return nil, common.ErrNotLoggedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathRefresh, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh rejected with status %d: %w", resp.StatusCode, common.ErrSessionExpired)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("refresh returned no token: %w", common.ErrSessionExpired)
	}

	cred, err := auth.FromToken(payload.AccessToken)
	if err != nil {
		return nil, err
	}
	// Claims may omit principal details; keep the ones we already know.
	if cur := c.creds.Current(); cur != nil {
		if cred.UserType == "" {
			cred.UserType = cur.UserType
		}
		if cred.UserID == 0 {
			cred.UserID = cur.UserID
		}
		if cred.Username == "" {
			cred.Username = cur.Username
		}
		if cred.StudentID == "" {
			cred.StudentID = cur.StudentID
		}
	}
	return cred, nil
}

// HealthCheck probes the service's unauthenticated liveness endpoint with a
// short timeout and reduces any failure, including timeout, to false.
func (c *HTTPClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
