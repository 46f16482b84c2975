package route

import (
	"net/http"

	"todo/internal/credential"
	"todo/internal/logging"
)

// Middleware enforces Guard on every request using only the auth cookie.
func Middleware(next http.Handler) http.Handler {
	log := logging.WithComponent("guard")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(credential.TokenKey)
		hasCookie := err == nil && c.Value != ""

		d := Guard(r.URL.Path, hasCookie)
		if !d.Allowed() {
			log.Debug().Str("path", r.URL.Path).Str("redirect", d.Redirect).Msg("guard redirect")
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
