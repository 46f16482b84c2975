package rest

import (
	"strings"
	"time"

	"todo/internal/service"
)

// The backend emits naive timestamps ("2025-01-02T15:04:05.123456") as well
// as RFC 3339 ones, so wire types decode them as strings first.

type wireUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (u wireUser) toService() service.User {
	return service.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: optionalTime(u.CreatedAt),
		UpdatedAt: optionalTime(u.UpdatedAt),
	}
}

type wireTask struct {
	ID          int    `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Priority    string `json:"priority"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (t wireTask) toService() service.Task {
	return service.Task{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    service.Priority(strings.ToLower(t.Priority)),
		CreatedAt:   parseTime(t.CreatedAt),
		UpdatedAt:   parseTime(t.UpdatedAt),
	}
}

type wireAuthResponse struct {
	User        *wireUser `json:"user"`
	Token       string    `json:"token"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   string    `json:"expires_at"`
}

func (r wireAuthResponse) toService() service.AuthResponse {
	resp := service.AuthResponse{
		Token:       r.Token,
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
		ExpiresAt:   parseTime(r.ExpiresAt),
	}
	if r.User != nil {
		u := r.User.toService()
		resp.User = &u
	}
	return resp
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTime parses a backend timestamp. Naive values are UTC. Unparseable
// or empty values yield the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func optionalTime(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
