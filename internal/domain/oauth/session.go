package oauth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

const (
	// StateCookie holds the anti-forgery state between redirect and callback.
	StateCookie = "cradle_oauth_state"
	// SessionCookie holds the signed-in GitHub profile.
	SessionCookie = "cradle_session"

	StateTTL   = 10 * time.Minute
	SessionTTL = 24 * time.Hour
)

var (
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired")
)

// GithubUser is the profile kept in the session cookie.
type GithubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session is the decoded session cookie.
type Session struct {
	User      GithubUser `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Encode renders s as standard padded base64 JSON, readable by atob in the
// browser. Read it back with FromRequest, not gin's Context.Cookie, which
// query-unescapes '+' into a space.
func (s Session) Encode() (string, error) {
	data, err := sonic.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// FromRequest decodes the raw session cookie of r.
func FromRequest(r *http.Request, now time.Time) (Session, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return Session{}, ErrNoSession
	}
	return DecodeSession(c.Value, now)
}

// DecodeSession parses a cookie value and rejects expired sessions.
func DecodeSession(value string, now time.Time) (Session, error) {
	if value == "" {
		return Session{}, ErrNoSession
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	var s Session
	if err := sonic.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if !now.Before(s.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

func newCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewStateCookie carries state for StateTTL.
func NewStateCookie(state string, secure bool) *http.Cookie {
	return newCookie(StateCookie, state, StateTTL, secure)
}

// NewSessionCookie carries an encoded session for SessionTTL.
func NewSessionCookie(value string, secure bool) *http.Cookie {
	return newCookie(SessionCookie, value, SessionTTL, secure)
}

// ClearCookie expires the named cookie.
func ClearCookie(name string, secure bool) *http.Cookie {
	c := newCookie(name, "", 0, secure)
	c.MaxAge = -1
	return c
}
