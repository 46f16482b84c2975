package rest

import (
	"net/http"

	"golang.org/x/oauth2"

	"todo/internal/credential"
)

// bearerTransport resolves the credential on every request and, when one
// is held, lets oauth2 attach it as a bearer Authorization header.
type bearerTransport struct {
	creds credential.Holder
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.creds.Retrieve()
	if !ok {
		return t.base.RoundTrip(req)
	}
	ot := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   t.base,
	}
	return ot.RoundTrip(req)
}
