package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/backend/rest"
	"todo/internal/credential"
	"todo/internal/route"
	"todo/internal/service"
	"todo/internal/testutil"
)

func fakeBackend(fake *testutil.FakeService) Backend {
	return func(creds credential.Holder, nav route.Navigator) service.Service {
		fake.Creds = creds
		return fake
	}
}

func serve(t *testing.T, h http.Handler, method, target, body string, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if signedIn {
		req.AddCookie(&http.Cookie{Name: credential.TokenKey, Value: testutil.Token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func authCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == credential.TokenKey {
			return c
		}
	}
	return nil
}

func TestProtectedPageWithoutCookieRedirects(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodGet, "/dashboard", "", false)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin?returnUrl=%2Fdashboard", rec.Header().Get("Location"))
}

func TestSignInPageWithCookieRedirectsToDashboard(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodPost, "/signin", `{"email":"a@b.co","password":"x"}`, true)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, route.DashboardPath, rec.Header().Get("Location"))
}

func TestSignInSetsAuthCookie(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodPost, "/signin",
		`{"email":"`+testutil.UserEmail+`","password":"`+testutil.Password+`"}`, false)

	require.Equal(t, http.StatusOK, rec.Code)
	c := authCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, testutil.Token, c.Value)
	assert.Equal(t, int(credential.CookieLifetime.Seconds()), c.MaxAge)

	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, testutil.UserEmail, user["email"])
}

func TestSignInRejectedStaysOnPage(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodPost, "/signin",
		`{"email":"`+testutil.UserEmail+`","password":"wrong"}`, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, authCookie(rec))
	assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["detail"])
}

func TestSignInValidationNeverReachesBackend(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.SignInErr = service.NewAPIError(http.StatusInternalServerError, "must not be called", "")
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodPost, "/signin", `{"email":"not-an-email","password":""}`, false)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestSignUpChecksConfirmation(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodPost, "/signup",
		`{"name":"Bob","email":"bob@example.com","password":"Secr3t!pw","confirm_password":"other","accept_terms":true}`, false)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["errors"], "confirmPassword")
}

func TestSignUpSetsAuthCookie(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodPost, "/signup",
		`{"name":"Bob","email":"bob@example.com","password":"Secr3t!pw","confirm_password":"Secr3t!pw","accept_terms":true}`, false)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, authCookie(rec))
}

func TestSignOutExpiresCookie(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.SignOutErr = service.NewAPIError(http.StatusInternalServerError, "boom", "")
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodPost, "/signout", "", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	c := authCookie(rec)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestDashboardReportsStats(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask(testutil.UserID, "A", true, service.PriorityLow)
	fake.AddTask(testutil.UserID, "B", true, service.PriorityLow)
	fake.AddTask(testutil.UserID, "C", false, service.PriorityLow)
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodGet, "/dashboard", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 2, stats["completed"])
	assert.EqualValues(t, 67, stats["percent"])
}

func TestTasksAppliesView(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask(testutil.UserID, "b", false, service.PriorityLow)
	fake.AddTask(testutil.UserID, "done", true, service.PriorityLow)
	fake.AddTask(testutil.UserID, "a", false, service.PriorityLow)
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodGet, "/tasks?status=pending&sort=title&order=asc", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tasks []service.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 2)
	assert.Equal(t, "a", body.Tasks[0].Title)
	assert.Equal(t, "b", body.Tasks[1].Title)
}

func TestTasksRejectsUnknownStatus(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodGet, "/tasks?status=archived", "", true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggle(t *testing.T) {
	fake := testutil.NewFakeService()
	task := fake.AddTask(testutil.UserID, "A", false, service.PriorityLow)
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodPost, "/tasks/1/toggle", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fake.Tasks(testutil.UserID)[0].Completed)
	got := decodeBody(t, rec)["task"].(map[string]any)
	assert.EqualValues(t, task.ID, got["id"])
	assert.Equal(t, true, got["completed"])
}

func TestToggleFailureReportsNotice(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask(testutil.UserID, "A", false, service.PriorityLow)
	fake.ToggleErr = service.NewAPIError(http.StatusInternalServerError, "database down", "")
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodPost, "/tasks/1/toggle", "", true)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "database down", body["detail"])
	assert.Equal(t, []any{"Failed to update status"}, body["notices"])
}

func TestDelete(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask(testutil.UserID, "A", false, service.PriorityLow)
	h := New(fakeBackend(fake)).Handler()

	rec := serve(t, h, http.MethodDelete, "/tasks/1", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, fake.Tasks(testutil.UserID))
	assert.Equal(t, []any{"Task deleted"}, decodeBody(t, rec)["notices"])
}

func TestDeleteInvalidID(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodDelete, "/tasks/abc", "", true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpiredSessionRedirectsToSignIn(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token expired"}`))
	}))
	defer api.Close()

	h := New(func(creds credential.Holder, nav route.Navigator) service.Service {
		return rest.New(api.URL, creds, nav)
	}).Handler()

	rec := serve(t, h, http.MethodGet, "/dashboard", "", true)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin?returnUrl=%2Fdashboard", rec.Header().Get("Location"))
	c := authCookie(rec)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}

func TestMetricsEndpoint(t *testing.T) {
	h := New(fakeBackend(testutil.NewFakeService())).Handler()

	rec := serve(t, h, http.MethodGet, "/metrics", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "todo_credential_clears_total")
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := New(fakeBackend(testutil.NewFakeService()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
