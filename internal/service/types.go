// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency tag of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority parses a priority name (case-insensitive, trimmed).
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority: %s", s)
}

// User is the authenticated identity.
type User struct {
	ID        string     `json:"id" yaml:"id"`
	Email     string     `json:"email" yaml:"email"`
	Name      string     `json:"name" yaml:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Task represents a single task item owned by a user.
type Task struct {
	ID          int       `json:"id" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Completed   bool      `json:"completed" yaml:"completed"`
	Priority    Priority  `json:"priority,omitempty" yaml:"priority,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// CreateTaskInput is the payload for creating a task.
type CreateTaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// UpdateTaskInput is the payload for updating a task.
// Nil fields are left unchanged by the server.
type UpdateTaskInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// Empty reports whether the update carries no fields.
func (in UpdateTaskInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Completed == nil && in.Priority == nil
}

// SignUpInput is the payload for registration. The confirmation and terms
// fields are checked locally and never sent.
type SignUpInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	AcceptTerms     bool   `json:"-"`
}

// SignInInput is the payload for signing in.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by sign-in and sign-up.
// Some backend versions send access_token instead of token.
type AuthResponse struct {
	User        *User     `json:"user,omitempty"`
	Token       string    `json:"token,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// BearerToken returns whichever token field the server populated.
func (r AuthResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Status filters tasks by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// SortField is the task field used for ordering.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortTitle     SortField = "title"
	SortUpdatedAt SortField = "updated_at"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseStatus validates a status filter name.
func ParseStatus(s string) (Status, error) {
	switch v := Status(s); v {
	case StatusAll, StatusPending, StatusCompleted:
		return v, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch v := SortField(s); v {
	case SortCreatedAt, SortTitle, SortUpdatedAt:
		return v, nil
	}
	return "", fmt.Errorf("invalid sort field: %s", s)
}

// ParseSortOrder validates a sort direction.
func ParseSortOrder(s string) (SortOrder, error) {
	switch v := SortOrder(s); v {
	case OrderAsc, OrderDesc:
		return v, nil
	}
	return "", fmt.Errorf("invalid sort order: %s", s)
}

// ListOptions are the optional server-side list parameters.
// Zero values are omitted from the request.
type ListOptions struct {
	Status Status
	Sort   SortField
	Order  SortOrder
}
