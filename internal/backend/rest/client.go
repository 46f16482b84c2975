// Package rest implements the service.Service interface against the todo
// backend's REST API.
package rest

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"todo/internal/credential"
	"todo/internal/logging"
	"todo/internal/metrics"
	"todo/internal/route"
	"todo/internal/service"
)

const (
	// APITimeout is the fixed timeout for every backend call.
	APITimeout = 15 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 1 << 20

	requestIDHeader = "X-Request-ID"
)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	creds   credential.Holder
	nav     route.Navigator
	log     zerolog.Logger
}

// New creates a client for the backend at baseURL. Every request carries
// the credential held by creds; nav is consulted and moved on 401 and may
// be nil when there is no location to redirect.
func New(baseURL string, creds credential.Holder, nav route.Navigator) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{}, creds, nav)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The client's transport is wrapped to attach the bearer credential.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, creds credential.Holder, nav route.Navigator) *Client {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *httpClient
	hc.Transport = &bearerTransport{creds: creds, base: base}
	hc.Timeout = APITimeout

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &hc,
		creds:   creds,
		nav:     nav,
		log:     logging.WithComponent("gateway"),
	}
}

// SignUp implements service.Service.
func (c *Client) SignUp(ctx context.Context, in service.SignUpInput) (service.AuthResponse, error) {
	return c.authenticate(ctx, "signup", "/api/auth/signup", in)
}

// SignIn implements service.Service.
func (c *Client) SignIn(ctx context.Context, in service.SignInInput) (service.AuthResponse, error) {
	return c.authenticate(ctx, "signin", "/api/auth/signin", in)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (service.AuthResponse, error) {
	var wire wireAuthResponse
	if err := c.do(ctx, op, http.MethodPost, path, nil, body, &wire); err != nil {
		return service.AuthResponse{}, err
	}
	resp := wire.toService()

	token := resp.BearerToken()
	if token == "" {
		return service.AuthResponse{}, service.NewAPIError(0, "", "no token in authentication response")
	}
	if err := c.creds.Store(token); err != nil {
		return service.AuthResponse{}, fmt.Errorf("failed to save credentials: %w", err)
	}
	return resp, nil
}

// SignOut implements service.Service. Credentials are cleared even when
// the request fails.
func (c *Client) SignOut(ctx context.Context) error {
	defer func() {
		// partial clears are logged by the holder
		_ = c.creds.Clear()
	}()
	return c.do(ctx, "signout", http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

// CurrentUser implements service.Service.
func (c *Client) CurrentUser(ctx context.Context) (service.User, error) {
	var u wireUser
	if err := c.do(ctx, "current_user", http.MethodGet, "/api/auth/me", nil, nil, &u); err != nil {
		return service.User{}, err
	}
	return u.toService(), nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, userID string, opts service.ListOptions) ([]service.Task, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", string(opts.Status))
	}
	if opts.Sort != "" {
		q.Set("sort", string(opts.Sort))
	}
	if opts.Order != "" {
		q.Set("order", string(opts.Order))
	}

	var wire []wireTask
	if err := c.do(ctx, "list_tasks", http.MethodGet, tasksPath(userID), q, nil, &wire); err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(wire))
	for _, t := range wire {
		result = append(result, t.toService())
	}
	return result, nil
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, userID string, taskID int) (service.Task, error) {
	var t wireTask
	if err := c.do(ctx, "get_task", http.MethodGet, taskPath(userID, taskID), nil, nil, &t); err != nil {
		return service.Task{}, err
	}
	return t.toService(), nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, userID string, in service.CreateTaskInput) (service.Task, error) {
	var t wireTask
	if err := c.do(ctx, "create_task", http.MethodPost, tasksPath(userID), nil, in, &t); err != nil {
		return service.Task{}, err
	}
	return t.toService(), nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, userID string, taskID int, in service.UpdateTaskInput) (service.Task, error) {
	var t wireTask
	if err := c.do(ctx, "update_task", http.MethodPut, taskPath(userID, taskID), nil, in, &t); err != nil {
		return service.Task{}, err
	}
	return t.toService(), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, userID string, taskID int) error {
	return c.do(ctx, "delete_task", http.MethodDelete, taskPath(userID, taskID), nil, nil, nil)
}

// ToggleComplete implements service.Service.
func (c *Client) ToggleComplete(ctx context.Context, userID string, taskID int) (service.Task, error) {
	var t wireTask
	if err := c.do(ctx, "toggle_complete", http.MethodPatch, taskPath(userID, taskID)+"/complete", nil, nil, &t); err != nil {
		return service.Task{}, err
	}
	return t.toService(), nil
}

func tasksPath(userID string) string {
	return "/api/" + url.PathEscape(userID) + "/tasks"
}

func taskPath(userID string, taskID int) string {
	return tasksPath(userID) + "/" + strconv.Itoa(taskID)
}

// do issues one request and decodes the JSON response into out (if non-nil).
// Every failure comes back as *service.APIError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return service.NewAPIError(0, "", fmt.Sprintf("encode request: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return service.NewAPIError(0, "", err.Error())
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.With().Str("op", op).Str("request_id", reqID).Logger()
	timer := metrics.NewTimer()
	resp, err := c.http.Do(req)
	timer.ObserveDuration(metrics.APIRequestDuration.WithLabelValues(op))
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "0").Inc()
		log.Debug().Err(err).Dur("elapsed", timer.Duration()).Msg("request failed")
		return service.NewAPIError(0, "", transportMessage(err))
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", timer.Duration()).Msg("request done")

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := service.NewAPIError(resp.StatusCode, errorDetail(data), http.StatusText(resp.StatusCode))
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized(log)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return service.NewAPIError(resp.StatusCode, "", fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// handleUnauthorized clears credentials and sends the user to sign-in,
// unless the current location already is an auth page.
func (c *Client) handleUnauthorized(log zerolog.Logger) {
	if c.nav == nil {
		return
	}
	current := c.nav.Path()
	if route.IsAuthPage(current) {
		return
	}
	_ = c.creds.Clear()
	metrics.CredentialClearsTotal.Inc()
	target := route.SignInURL(current)
	log.Warn().Str("from", current).Str("to", target).Msg("credential rejected, redirecting to sign-in")
	c.nav.Navigate(target)
}

// transportMessage turns a client error into a short message.
func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return "request timed out"
	}
	return err.Error()
}

// errorDetail extracts the server message from an error body. FastAPI sends
// {"detail": "..."} or, for validation failures, {"detail": [{"msg": "..."}]}.
func errorDetail(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return envelope.Message
}
