// Package credential persists the bearer token used for backend calls.
//
// The token lives in two places: a key/value store read by the API client
// and a cookie read by the route guard. The guard never opens the key/value
// store, so both must be written and cleared together.
package credential

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"todo/internal/logging"
)

const (
	// TokenKey is the key/value store key and the cookie name.
	TokenKey = "todo_auth_token"

	// CookieLifetime is the fixed auth cookie expiry.
	CookieLifetime = 7 * 24 * time.Hour
)

// Holder stores, retrieves and clears the bearer token.
type Holder interface {
	// Store writes the token to every location.
	Store(token string) error

	// Retrieve returns the token, or false if none is stored.
	Retrieve() (string, bool)

	// Clear removes the token from every location. A failure in one
	// location does not prevent clearing the others; the joined error is
	// informational and callers must not treat it as fatal.
	Clear() error
}

// KV is a persistent key/value store.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
}

// CookieStore persists HTTP cookies.
type CookieStore interface {
	Get(name string) (*http.Cookie, bool, error)
	Set(c *http.Cookie) error
	Remove(name string) error
}

// Dual is a Holder backed by a key/value store and a cookie store.
type Dual struct {
	kv      KV
	cookies CookieStore
	now     func() time.Time
	log     zerolog.Logger
}

// NewDual creates a holder over the given stores.
func NewDual(kv KV, cookies CookieStore) *Dual {
	return &Dual{
		kv:      kv,
		cookies: cookies,
		now:     time.Now,
		log:     logging.WithComponent("credential"),
	}
}

// NewFiles returns the file-backed holder: a BoltDB store at credentialsPath
// and a cookie file at cookiesPath. Neither file is touched until used.
func NewFiles(credentialsPath, cookiesPath string) *Dual {
	return NewDual(NewBoltKV(credentialsPath), NewCookieFile(cookiesPath))
}

// Cookies returns the cookie store, the only state the route guard reads.
func (d *Dual) Cookies() CookieStore {
	return d.cookies
}

// Store implements Holder.
func (d *Dual) Store(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := d.kv.Put(TokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := d.cookies.Set(AuthCookie(token, d.now())); err != nil {
		return fmt.Errorf("store auth cookie: %w", err)
	}
	return nil
}

// Retrieve implements Holder. The key/value store wins; an unexpired
// cookie is the fallback.
func (d *Dual) Retrieve() (string, bool) {
	token, ok, err := d.kv.Get(TokenKey)
	if err != nil {
		d.log.Warn().Err(err).Msg("reading token store failed, falling back to cookie")
	}
	if ok && token != "" {
		return token, true
	}

	c, ok, err := d.cookies.Get(TokenKey)
	if err != nil {
		d.log.Warn().Err(err).Msg("reading cookie store failed")
		return "", false
	}
	if !ok || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear implements Holder.
func (d *Dual) Clear() error {
	var errs []error
	if err := d.kv.Delete(TokenKey); err != nil {
		errs = append(errs, fmt.Errorf("clear token store: %w", err))
	}
	if err := d.cookies.Remove(TokenKey); err != nil {
		errs = append(errs, fmt.Errorf("clear auth cookie: %w", err))
	}
	err := errors.Join(errs...)
	if err != nil {
		d.log.Warn().Err(err).Msg("credentials only partially cleared")
	}
	return err
}

// HasAuthCookie reports whether the cookie store holds a live auth cookie.
// This is the only signal the route guard consults.
func HasAuthCookie(cookies CookieStore) bool {
	c, ok, err := cookies.Get(TokenKey)
	return err == nil && ok && c.Value != ""
}

// AuthCookie builds the auth cookie for token, expiring CookieLifetime
// after now.
func AuthCookie(token string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     TokenKey,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(CookieLifetime),
		MaxAge:   int(CookieLifetime / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredAuthCookie builds a cookie that deletes the auth cookie in a browser.
func ExpiredAuthCookie() *http.Cookie {
	return &http.Cookie{
		Name:   TokenKey,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}
}

// Memory is an in-process Holder. It backs per-request sessions in the
// local server and tests.
type Memory struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

// NewMemory creates a holder seeded with token (may be empty).
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

// Store implements Holder.
func (m *Memory) Store(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.cleared = false
	return nil
}

// Retrieve implements Holder.
func (m *Memory) Retrieve() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// Clear implements Holder.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared = true
	return nil
}

// Cleared reports whether Clear ran after the last Store.
func (m *Memory) Cleared() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}
