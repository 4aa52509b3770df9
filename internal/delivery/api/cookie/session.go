// Package cookie writes and clears the session cookie.
package cookie

import (
	"net/http"
	"strings"
	"time"

	"chatty/config"
	"chatty/internal/domain/entity"
)

// Session builds session cookies from configuration.
type Session struct {
	name     string
	domain   string
	path     string
	secure   bool
	sameSite http.SameSite
	now      func() time.Time
}

// NewSession is the constructor for Session.
func NewSession(cfg *config.Config) *Session {
	c := cfg.Cookie
	if c == nil {
		c = &config.CookieConfig{Secure: true, SameSite: "none"}
	}

	name := c.Name
	if name == "" {
		name = "jwt"
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	return &Session{
		name:     name,
		domain:   c.Domain,
		path:     path,
		secure:   c.Secure,
		sameSite: parseSameSite(c.SameSite),
		now:      time.Now,
	}
}

// Name returns the cookie name.
func (s *Session) Name() string {
	return s.name
}

// Set attaches the session token. The cookie lives exactly as long as the token.
func (s *Session) Set(w http.ResponseWriter, session *entity.Session) {
	maxAge := int(session.ExpiresAt.Sub(s.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, s.build(session.Token, maxAge, session.ExpiresAt))
}

// Clear expires the cookie on the client.
func (s *Session) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.build("", -1, time.Unix(0, 0)))
}

func (s *Session) build(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     s.path,
		Domain:   s.domain,
		MaxAge:   maxAge,
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteNoneMode
	}
}
