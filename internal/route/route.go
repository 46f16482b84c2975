// Package route decides where a request may go based on authentication
// state, and tracks the current location for redirect-on-401.
package route

import (
	"net/url"
	"strings"
	"sync"
)

const (
	// SignInPath is where unauthenticated users are sent.
	SignInPath = "/signin"

	// SignUpPath is the registration page.
	SignUpPath = "/signup"

	// DashboardPath is where authenticated users land.
	DashboardPath = "/dashboard"

	// ReturnURLParam carries the page to return to after signing in.
	ReturnURLParam = "returnUrl"
)

// ProtectedPrefixes require an auth cookie.
var ProtectedPrefixes = []string{"/dashboard", "/profile", "/tasks"}

// AuthPrefixes are the sign-in and sign-up pages.
var AuthPrefixes = []string{SignInPath, SignUpPath}

// IsProtected reports whether path requires authentication.
func IsProtected(path string) bool {
	return hasAnyPrefix(path, ProtectedPrefixes)
}

// IsAuthPage reports whether path is a sign-in or sign-up page.
func IsAuthPage(path string) bool {
	return hasAnyPrefix(path, AuthPrefixes)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// SignInURL returns the sign-in path with returnPath as the return target.
func SignInURL(returnPath string) string {
	q := url.Values{}
	q.Set(ReturnURLParam, returnPath)
	return SignInPath + "?" + q.Encode()
}

// Decision is the outcome of Guard.
type Decision struct {
	// Redirect is empty when the request may proceed.
	Redirect string
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Guard applies the route-protection policy. It sees only whether an auth
// cookie is present, never whether the token is still valid.
func Guard(path string, hasAuthCookie bool) Decision {
	if IsProtected(path) && !hasAuthCookie {
		return Decision{Redirect: SignInURL(path)}
	}
	if IsAuthPage(path) && hasAuthCookie {
		return Decision{Redirect: DashboardPath}
	}
	return Decision{}
}

// Navigator exposes the current location and moves it.
type Navigator interface {
	// Path returns the current location path.
	Path() string

	// Navigate moves to target (path plus optional query).
	Navigate(target string)
}

// Location is a Navigator that records where it was sent.
type Location struct {
	mu         sync.Mutex
	path       string
	redirected string
}

// NewLocation starts at path.
func NewLocation(path string) *Location {
	return &Location{path: path}
}

// Path implements Navigator.
func (l *Location) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Navigate implements Navigator.
func (l *Location) Navigate(target string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redirected = target
	if u, err := url.Parse(target); err == nil {
		l.path = u.Path
	} else {
		l.path = target
	}
}

// Redirected returns the last navigation target, or "".
func (l *Location) Redirected() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redirected
}
