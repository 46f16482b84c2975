// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"todo/internal/credential"
	"todo/internal/service"
)

// Fixed identity used by NewFakeService.
const (
	UserID    = "user-1"
	UserEmail = "ann@example.com"
	UserName  = "Ann"
	Password  = "Passw0rd!"
	Token     = "fake-token"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = service.NewAPIError(http.StatusNotFound, "Task not found", "")

// ErrUnauthorized is returned when no valid credential is presented.
var ErrUnauthorized = service.NewAPIError(http.StatusUnauthorized, "Not authenticated", "")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	users  map[string]fakeUser // email -> user
	tasks  map[string][]service.Task
	nextID int
	now    time.Time

	// Creds, when set, receives the token on sign-in and sign-up and is
	// cleared on sign-out.
	Creds credential.Holder

	// Error injection for testing
	SignUpErr      error
	SignInErr      error
	SignOutErr     error
	CurrentUserErr error
	ListTasksErr   error
	GetTaskErr     error
	CreateTaskErr  error
	UpdateTaskErr  error
	DeleteTaskErr  error
	ToggleErr      error

	// Gate, when set, blocks toggle and delete until it is closed or
	// receives a value.
	Gate chan struct{}

	// Call counters
	CurrentUserCalls int
	ListTasksCalls   int
	LastListOptions  service.ListOptions
}

type fakeUser struct {
	user     service.User
	password string
}

// NewFakeService creates a FakeService with one registered user and no tasks.
func NewFakeService() *FakeService {
	fs := &FakeService{
		users:  make(map[string]fakeUser),
		tasks:  make(map[string][]service.Task),
		nextID: 1,
		now:    time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	fs.users[UserEmail] = fakeUser{
		user:     service.User{ID: UserID, Email: UserEmail, Name: UserName},
		password: Password,
	}
	return fs
}

func (f *FakeService) tick() time.Time {
	f.now = f.now.Add(time.Minute)
	return f.now
}

// AddTask appends a task for userID and returns it.
func (f *FakeService) AddTask(userID, title string, completed bool, priority service.Priority) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := f.tick()
	t := service.Task{
		ID:        f.nextID,
		UserID:    userID,
		Title:     title,
		Completed: completed,
		Priority:  priority,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	f.nextID++
	f.tasks[userID] = append(f.tasks[userID], t)
	return t
}

// Tasks returns a copy of userID's tasks in server order.
func (f *FakeService) Tasks(userID string) []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks[userID]))
	copy(out, f.tasks[userID])
	return out
}

func (f *FakeService) wait(ctx context.Context) error {
	if f.Gate == nil {
		return nil
	}
	select {
	case <-f.Gate:
		return nil
	case <-ctx.Done():
		return service.NewAPIError(0, "", "request cancelled")
	}
}

func (f *FakeService) auth(u service.User) service.AuthResponse {
	if f.Creds != nil {
		_ = f.Creds.Store(Token)
	}
	return service.AuthResponse{User: &u, Token: Token, TokenType: "bearer"}
}

// SignUp implements service.Service.
func (f *FakeService) SignUp(ctx context.Context, in service.SignUpInput) (service.AuthResponse, error) {
	if f.SignUpErr != nil {
		return service.AuthResponse{}, f.SignUpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(in.Email)
	if _, ok := f.users[email]; ok {
		return service.AuthResponse{}, service.NewAPIError(http.StatusBadRequest, "Email already registered", "")
	}
	u := service.User{ID: "user-" + email, Email: email, Name: in.Name}
	f.users[email] = fakeUser{user: u, password: in.Password}
	return f.auth(u), nil
}

// SignIn implements service.Service.
func (f *FakeService) SignIn(ctx context.Context, in service.SignInInput) (service.AuthResponse, error) {
	if f.SignInErr != nil {
		return service.AuthResponse{}, f.SignInErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	fu, ok := f.users[strings.ToLower(in.Email)]
	if !ok || fu.password != in.Password {
		return service.AuthResponse{}, service.NewAPIError(http.StatusUnauthorized, "Invalid email or password", "")
	}
	return f.auth(fu.user), nil
}

// SignOut implements service.Service.
func (f *FakeService) SignOut(ctx context.Context) error {
	if f.Creds != nil {
		defer func() { _ = f.Creds.Clear() }()
	}
	return f.SignOutErr
}

// CurrentUser implements service.Service.
func (f *FakeService) CurrentUser(ctx context.Context) (service.User, error) {
	f.mu.Lock()
	f.CurrentUserCalls++
	f.mu.Unlock()
	if f.CurrentUserErr != nil {
		return service.User{}, f.CurrentUserErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.users[UserEmail].user, nil
}

// ListTasks implements service.Service. Options are applied the way the
// backend applies them.
func (f *FakeService) ListTasks(ctx context.Context, userID string, opts service.ListOptions) ([]service.Task, error) {
	f.mu.Lock()
	f.ListTasksCalls++
	f.LastListOptions = opts
	f.mu.Unlock()
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	var out []service.Task
	for _, t := range f.Tasks(userID) {
		switch opts.Status {
		case service.StatusPending:
			if t.Completed {
				continue
			}
		case service.StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	if opts.Sort == service.SortTitle {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
		if opts.Order == service.OrderDesc {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *FakeService) find(userID string, taskID int) (int, bool) {
	for i, t := range f.tasks[userID] {
		if t.ID == taskID {
			return i, true
		}
	}
	return -1, false
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, userID string, taskID int) (service.Task, error) {
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	i, ok := f.find(userID, taskID)
	if !ok {
		return service.Task{}, ErrNotFound
	}
	return f.tasks[userID][i], nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, userID string, in service.CreateTaskInput) (service.Task, error) {
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	priority := in.Priority
	if priority == "" {
		priority = service.PriorityMedium
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := f.tick()
	t := service.Task{
		ID:          f.nextID,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	f.nextID++
	f.tasks[userID] = append([]service.Task{t}, f.tasks[userID]...)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, userID string, taskID int, in service.UpdateTaskInput) (service.Task, error) {
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.find(userID, taskID)
	if !ok {
		return service.Task{}, ErrNotFound
	}
	t := &f.tasks[userID][i]
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	t.UpdatedAt = f.tick()
	return *t, nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, userID string, taskID int) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.find(userID, taskID)
	if !ok {
		return ErrNotFound
	}
	tasks := f.tasks[userID]
	f.tasks[userID] = append(tasks[:i:i], tasks[i+1:]...)
	return nil
}

// ToggleComplete implements service.Service.
func (f *FakeService) ToggleComplete(ctx context.Context, userID string, taskID int) (service.Task, error) {
	if err := f.wait(ctx); err != nil {
		return service.Task{}, err
	}
	if f.ToggleErr != nil {
		return service.Task{}, f.ToggleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.find(userID, taskID)
	if !ok {
		return service.Task{}, ErrNotFound
	}
	t := &f.tasks[userID][i]
	t.Completed = !t.Completed
	t.UpdatedAt = f.tick()
	return *t, nil
}
