// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All backend HTTP calls go through this interface.
// Commands never build requests directly.
type Service interface {
	// SignUp registers a new account. On success the returned token has
	// already been handed to the credential holder.
	SignUp(ctx context.Context, in SignUpInput) (AuthResponse, error)

	// SignIn authenticates with email and password. On success the
	// returned token has already been handed to the credential holder.
	SignIn(ctx context.Context, in SignInInput) (AuthResponse, error)

	// SignOut ends the server session. Local credentials are cleared
	// whether or not the request succeeds.
	SignOut(ctx context.Context) error

	// CurrentUser returns the identity behind the current credential.
	CurrentUser(ctx context.Context) (User, error)

	// ListTasks returns the user's tasks.
	// Empty ListOptions fields are not sent.
	ListTasks(ctx context.Context, userID string, opts ListOptions) ([]Task, error)

	// GetTask returns a single task.
	GetTask(ctx context.Context, userID string, taskID int) (Task, error)

	// CreateTask creates a task and returns it with its server-assigned ID.
	CreateTask(ctx context.Context, userID string, in CreateTaskInput) (Task, error)

	// UpdateTask applies a partial update and returns the stored task.
	UpdateTask(ctx context.Context, userID string, taskID int, in UpdateTaskInput) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, userID string, taskID int) error

	// ToggleComplete flips the completion flag and returns the stored task.
	ToggleComplete(ctx context.Context, userID string, taskID int) (Task, error)
}
