package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"
)

// storedCookie is the on-disk form of a cookie.
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path"`
	Expires time.Time `json:"expires"`
}

// CookieFile implements CookieStore as a JSON file (mode 0600).
// Expired cookies are treated as absent.
type CookieFile struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewCookieFile creates a cookie store at path. The file is created lazily.
func NewCookieFile(path string) *CookieFile {
	return &CookieFile{path: path, now: time.Now}
}

// Get implements CookieStore.
func (f *CookieFile) Get(name string) (*http.Cookie, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cookies, err := f.read()
	if err != nil {
		return nil, false, err
	}
	sc, ok := cookies[name]
	if !ok {
		return nil, false, nil
	}
	if !sc.Expires.IsZero() && !f.now().Before(sc.Expires) {
		return nil, false, nil
	}
	return &http.Cookie{Name: sc.Name, Value: sc.Value, Path: sc.Path, Expires: sc.Expires}, true, nil
}

// Set implements CookieStore.
func (f *CookieFile) Set(c *http.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cookies, err := f.read()
	if err != nil {
		return err
	}
	cookies[c.Name] = storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires}
	return f.write(cookies)
}

// Remove implements CookieStore.
func (f *CookieFile) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cookies, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := cookies[name]; !ok {
		return nil
	}
	delete(cookies, name)
	return f.write(cookies)
}

func (f *CookieFile) read() (map[string]storedCookie, error) {
	cookies := make(map[string]storedCookie)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cookies, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return cookies, nil
	}
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("invalid cookie file: %w", err)
	}
	return cookies, nil
}

func (f *CookieFile) write(cookies map[string]storedCookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}
