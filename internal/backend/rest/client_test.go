package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/credential"
	"todo/internal/route"
	"todo/internal/service"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token, path string) (*Client, *credential.Memory, *route.Location) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	creds := credential.NewMemory(token)
	loc := route.NewLocation(path)
	return New(srv.URL+"/", creds, loc), creds, loc
}

func TestBearerHeaderAttachedWhenTokenHeld(t *testing.T) {
	var gotAuth, gotReqID string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.c","name":"Ann"}`))
	}, "tok-123", "/dashboard")

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotReqID)
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}, "", "/tasks")

	_, err := c.ListTasks(context.Background(), "u1", service.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedClearsCredentialsAndRedirects(t *testing.T) {
	c, creds, loc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token expired"}`))
	}, "stale", "/tasks")

	_, err := c.ListTasks(context.Background(), "u1", service.ListOptions{})
	require.Error(t, err)
	assert.True(t, service.IsUnauthorized(err))
	assert.Equal(t, "Token expired", err.Error())

	assert.True(t, creds.Cleared())
	_, ok := creds.Retrieve()
	assert.False(t, ok)
	assert.Equal(t, "/signin?returnUrl=%2Ftasks", loc.Redirected())
}

func TestUnauthorizedOnAuthPageKeepsLocation(t *testing.T) {
	c, creds, loc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid email or password"}`))
	}, "", "/signin")

	_, err := c.SignIn(context.Background(), service.SignInInput{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.False(t, creds.Cleared())
	assert.Empty(t, loc.Redirected())
	assert.Equal(t, "/signin", loc.Path())
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusNotFound, `{"detail":"Task not found"}`, "Task not found"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"message field", http.StatusBadRequest, `{"message":"bad input"}`, "bad input"},
		{"no body", http.StatusInternalServerError, ``, "Internal Server Error"},
		{"non-json body", http.StatusBadGateway, `<html>oops</html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "tok", "/tasks")

			_, err := c.GetTask(context.Background(), "u1", 1)
			require.Error(t, err)
			assert.Equal(t, tt.status, service.StatusOf(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestTransportErrorHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, credential.NewMemory("tok"), route.NewLocation("/tasks"))
	_, err := c.GetTask(context.Background(), "u1", 1)
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))
	assert.NotEmpty(t, err.Error())
}

func TestCancelledContextReported(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, "tok", "/tasks")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetTask(ctx, "u1", 1)
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))
	assert.Equal(t, "request timed out", err.Error())
}

func TestSignInStoresToken(t *testing.T) {
	var body map[string]string
	c, creds, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/signin", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"a@b.c","name":"Ann"},"token":"fresh","expires_at":"2025-01-08T10:00:00"}`))
	}, "", "/signin")

	resp, err := c.SignIn(context.Background(), service.SignInInput{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Ann", resp.User.Name)
	assert.Equal(t, time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC), resp.ExpiresAt)
	assert.Equal(t, "a@b.c", body["email"])

	tok, ok := creds.Retrieve()
	assert.True(t, ok)
	assert.Equal(t, "fresh", tok)
}

func TestSignUpAcceptsAccessToken(t *testing.T) {
	var body map[string]any
	c, creds, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/signup", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"user":{"id":"u2","email":"b@c.d","name":"Bo"},"access_token":"acc","token_type":"bearer"}`))
	}, "", "/signup")

	_, err := c.SignUp(context.Background(), service.SignUpInput{
		Name: "Bo", Email: "b@c.d", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!", AcceptTerms: true,
	})
	require.NoError(t, err)
	tok, _ := creds.Retrieve()
	assert.Equal(t, "acc", tok)
	assert.NotContains(t, body, "ConfirmPassword")
	assert.NotContains(t, body, "AcceptTerms")
}

func TestSignInWithoutTokenFails(t *testing.T) {
	c, creds, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"u1"}}`))
	}, "", "/signin")

	_, err := c.SignIn(context.Background(), service.SignInInput{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)
	_, ok := creds.Retrieve()
	assert.False(t, ok)
}

func TestSignOutClearsEvenOnFailure(t *testing.T) {
	c, creds, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "tok", "/dashboard")

	err := c.SignOut(context.Background())
	require.Error(t, err)
	_, ok := creds.Retrieve()
	assert.False(t, ok)
}

func TestTaskEndpoints(t *testing.T) {
	type call struct{ method, path, query string }
	var calls []call
	task := `{"id":7,"user_id":"u/1","title":"Write","completed":true,"priority":"HIGH","created_at":"2025-01-02 15:04:05.123456","updated_at":"2025-01-02T15:04:05Z"}`

	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.EscapedPath(), r.URL.RawQuery})
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if r.URL.Path == "/api/u/1/tasks" {
				_, _ = w.Write([]byte("[" + task + "]"))
				return
			}
			_, _ = w.Write([]byte(task))
		default:
			_, _ = w.Write([]byte(task))
		}
	}, "tok", "/tasks")
	ctx := context.Background()

	list, err := c.ListTasks(ctx, "u/1", service.ListOptions{Status: service.StatusCompleted, Sort: service.SortTitle, Order: service.OrderAsc})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, service.PriorityHigh, list[0].Priority)
	assert.Equal(t, 123456000, list[0].CreatedAt.Nanosecond())

	_, err = c.CreateTask(ctx, "u/1", service.CreateTaskInput{Title: "Write"})
	require.NoError(t, err)
	title := "Rewrite"
	_, err = c.UpdateTask(ctx, "u/1", 7, service.UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	toggled, err := c.ToggleComplete(ctx, "u/1", 7)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	require.NoError(t, c.DeleteTask(ctx, "u/1", 7))

	assert.Equal(t, []call{
		{http.MethodGet, "/api/u%2F1/tasks", "order=asc&sort=title&status=completed"},
		{http.MethodPost, "/api/u%2F1/tasks", ""},
		{http.MethodPut, "/api/u%2F1/tasks/7", ""},
		{http.MethodPatch, "/api/u%2F1/tasks/7/complete", ""},
		{http.MethodDelete, "/api/u%2F1/tasks/7", ""},
	}, calls)
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), parseTime("2025-03-01T08:00:00"))
	assert.Equal(t, time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC), parseTime("2025-03-01T08:00:00+01:00").UTC())
	assert.Nil(t, optionalTime(""))
}

type deadlineRecorder struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	d.deadline, d.ok = req.Context().Deadline()
	return http.DefaultTransport.RoundTrip(req)
}

func TestEveryCallUsesFixedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	rec := &deadlineRecorder{}
	c := NewWithHTTPClient(srv.URL, &http.Client{Transport: rec, Timeout: time.Minute},
		credential.NewMemory("tok"), route.NewLocation("/tasks"))

	start := time.Now()
	_, err := c.ListTasks(context.Background(), "u1", service.ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, APITimeout, c.http.Timeout)
	require.True(t, rec.ok, "request context must carry a deadline")
	assert.WithinDuration(t, start.Add(APITimeout), rec.deadline, time.Second)
}
