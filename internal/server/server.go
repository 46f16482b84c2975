// Package server exposes the task dashboard over HTTP behind the route
// guard. Every request gets its own session context seeded from the auth
// cookie; nothing is shared between requests except the backend address.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"todo/internal/credential"
	"todo/internal/logging"
	"todo/internal/metrics"
	"todo/internal/route"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/tasks"
	"todo/internal/validate"
	"todo/internal/view"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Backend builds the gateway for one request from its credential holder
// and location.
type Backend func(creds credential.Holder, nav route.Navigator) service.Service

// Server serves the guarded task pages.
type Server struct {
	backend Backend
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a server talking to the backend built by backend.
func New(backend Backend) *Server {
	return &Server{
		backend: backend,
		now:     time.Now,
		log:     logging.WithComponent("server"),
	}
}

// Handler returns the routed handler with the guard applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /signin", s.handleSignIn)
	mux.HandleFunc("POST /signup", s.handleSignUp)
	mux.HandleFunc("POST /signout", s.handleSignOut)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /tasks", s.handleTasks)
	mux.HandleFunc("POST /tasks/{id}/toggle", s.handleToggle)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDelete)
	mux.Handle("GET /metrics", metrics.Handler())
	return s.logRequests(route.Middleware(mux))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.log.Info().Str("addr", listener.Addr().String()).Msg("serving")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := metrics.NewTimer()
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", timer.Duration()).
			Msg("request")
	})
}

// requestSession is the session context of one request.
type requestSession struct {
	creds   *credential.Memory
	loc     *route.Location
	session *session.Store
	tasks   *tasks.Store

	mu      sync.Mutex
	notices []tasks.Notice
}

func (s *Server) open(r *http.Request) *requestSession {
	token := ""
	if c, err := r.Cookie(credential.TokenKey); err == nil {
		token = c.Value
	}
	rs := &requestSession{
		creds: credential.NewMemory(token),
		loc:   route.NewLocation(r.URL.Path),
	}
	svc := s.backend(rs.creds, rs.loc)
	rs.session = session.New(svc, rs.creds)
	rs.tasks = tasks.New(svc, tasks.NotifierFunc(rs.notify))
	return rs
}

func (rs *requestSession) notify(n tasks.Notice) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.notices = append(rs.notices, n)
}

// messages returns the notice texts collected so far.
func (rs *requestSession) messages() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, 0, len(rs.notices))
	for _, n := range rs.notices {
		out = append(out, n.Message)
	}
	return out
}

// load resolves the user and loads their tasks.
func (rs *requestSession) load(ctx context.Context, opts service.ListOptions) (service.User, error) {
	if rs.session.Resolve(ctx) != session.Authenticated {
		if err := rs.session.Err(); err != nil {
			return service.User{}, err
		}
		return service.User{}, errNotSignedIn
	}
	user := *rs.session.User()
	if err := rs.tasks.LoadWith(ctx, user.ID, opts); err != nil {
		return service.User{}, err
	}
	return user, nil
}

var errNotSignedIn = service.NewAPIError(http.StatusUnauthorized, "Not authenticated", "")

type signUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AcceptTerms     bool   `json:"accept_terms"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in service.SignInInput
	if !decode(w, r, &in) {
		return
	}
	if err := validate.SignIn(in); err != nil {
		s.fail(w, r, nil, err)
		return
	}
	rs := s.open(r)
	resp, err := rs.session.SignIn(r.Context(), in)
	if err != nil {
		s.fail(w, r, rs, err)
		return
	}
	s.authenticated(w, rs, resp)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decode(w, r, &req) {
		return
	}
	in := service.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     req.AcceptTerms,
	}
	if err := validate.SignUp(in); err != nil {
		s.fail(w, r, nil, err)
		return
	}
	rs := s.open(r)
	resp, err := rs.session.SignUp(r.Context(), in)
	if err != nil {
		s.fail(w, r, rs, err)
		return
	}
	s.authenticated(w, rs, resp)
}

// authenticated hands the stored token to the browser as the auth cookie.
func (s *Server) authenticated(w http.ResponseWriter, rs *requestSession, resp service.AuthResponse) {
	token, _ := rs.creds.Retrieve()
	http.SetCookie(w, credential.AuthCookie(token, s.now()))
	writeJSON(w, http.StatusOK, map[string]any{"user": resp.User})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	rs := s.open(r)
	if _, ok := rs.creds.Retrieve(); ok {
		if err := rs.session.SignOut(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("logout completed with warnings")
		}
	}
	http.SetCookie(w, credential.ExpiredAuthCookie())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rs := s.open(r)
	user, err := rs.load(r.Context(), service.ListOptions{})
	if err != nil {
		s.fail(w, r, rs, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"stats": view.Summarize(rs.tasks.Tasks()),
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	opts, err := viewOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	rs := s.open(r)
	if _, err := rs.load(r.Context(), service.ListOptions{}); err != nil {
		s.fail(w, r, rs, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": view.Apply(rs.tasks.Tasks(), opts)})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	rs := s.open(r)
	if _, err := rs.load(r.Context(), service.ListOptions{}); err != nil {
		s.fail(w, r, rs, err)
		return
	}
	t, err := rs.tasks.Toggle(r.Context(), id)
	if err != nil {
		s.fail(w, r, rs, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": t, "notices": rs.messages()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	rs := s.open(r)
	if _, err := rs.load(r.Context(), service.ListOptions{}); err != nil {
		s.fail(w, r, rs, err)
		return
	}
	if err := rs.tasks.Delete(r.Context(), id); err != nil {
		s.fail(w, r, rs, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": rs.messages()})
}

// fail writes err. When the gateway navigated away during the request the
// browser follows it and drops its cookie.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, rs *requestSession, err error) {
	if rs != nil {
		if target := rs.loc.Redirected(); target != "" {
			http.SetCookie(w, credential.ExpiredAuthCookie())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
	}

	var verrs validate.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verrs})
		return
	}

	status := service.StatusOf(err)
	switch {
	case status == 0:
		status = http.StatusBadGateway
	case status < 400:
		status = http.StatusInternalServerError
	}
	body := map[string]any{"detail": err.Error()}
	if rs != nil {
		if msgs := rs.messages(); len(msgs) > 0 {
			body["notices"] = msgs
		}
	}
	s.log.Debug().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, status, body)
}

func viewOptions(r *http.Request) (view.Options, error) {
	opts := view.Default
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st, err := service.ParseStatus(v)
		if err != nil {
			return opts, err
		}
		opts.Status = st
	}
	if v := q.Get("sort"); v != "" {
		f, err := service.ParseSortField(v)
		if err != nil {
			return opts, err
		}
		opts.Sort = f
	}
	if v := q.Get("order"); v != "" {
		o, err := service.ParseSortOrder(v)
		if err != nil {
			return opts, err
		}
		opts.Order = o
	}
	return opts, nil
}

func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid task id"})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
