package http

import (
	"net/http"
	"time"

	"authsvc/internal/dto"
)

const sessionCookieName = "jwt"

type cookiePolicy struct {
	secure bool
}

func (p cookiePolicy) base() *http.Cookie {
	c := &http.Cookie{
		Name:     sessionCookieName,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if p.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// session carries the token. A token without expiry yields a browser-session
// cookie.
func (p cookiePolicy) session(tok dto.SessionToken, now time.Time) *http.Cookie {
	c := p.base()
	c.Value = tok.Token
	if !tok.ExpiresAt.IsZero() {
		c.Expires = tok.ExpiresAt
		c.MaxAge = int(tok.ExpiresAt.Sub(now).Seconds())
		if c.MaxAge <= 0 {
			c.MaxAge = -1
		}
	}
	return c
}

func (p cookiePolicy) cleared() *http.Cookie {
	c := p.base()
	c.Value = ""
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	return c
}

func sessionTokenFrom(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
