package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
	"github.com/cradlehq/cradle/backend/internal/upstream"
)

// Error codes put in the ?error= query of failed callbacks.
const (
	CodeMissingCode         = "missing_code"
	CodeInvalidState        = "invalid_state"
	CodeNotConfigured       = "oauth_not_configured"
	CodeTokenExchangeFailed = "token_exchange_failed"
	CodeUserFetchFailed     = "user_fetch_failed"
)

// CallbackError is a failed callback, reported to the browser by Code.
type CallbackError struct {
	Code string
	Err  error
}

func (e *CallbackError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// Config configures the GitHub OAuth app.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// AppPath is where a successful sign-in lands.
	AppPath string
	Scope   string

	// Overridable for tests.
	AuthBaseURL string
	APIBaseURL  string
}

// Provider runs the GitHub authorization code flow.
type Provider struct {
	cfg    Config
	auth   *upstream.Client
	api    *upstream.Client
	clock  func() time.Time
	logger *logging.Logger
}

// NewProvider creates a provider. logger may be nil.
func NewProvider(cfg Config, logger *logging.Logger) *Provider {
	if cfg.AppPath == "" {
		cfg.AppPath = "/app"
	}
	if cfg.Scope == "" {
		cfg.Scope = "read:user user:email"
	}
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = "https://github.com"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}

	p := &Provider{
		cfg:    cfg,
		auth:   upstream.NewClient(upstream.Config{Name: "github-oauth", BaseURL: cfg.AuthBaseURL, Timeout: 10 * time.Second}),
		api:    upstream.NewClient(upstream.Config{Name: "github-api", BaseURL: cfg.APIBaseURL, Timeout: 10 * time.Second}),
		clock:  time.Now,
		logger: logging.OrNop(logger).Named("oauth"),
	}
	p.api.SetHeader("Accept", "application/vnd.github+json")
	return p
}

// Configured reports whether a client id and secret are set.
func (p *Provider) Configured() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != ""
}

// Now returns the provider clock.
func (p *Provider) Now() time.Time { return p.clock() }

// AppPath is the post sign-in redirect target.
func (p *Provider) AppPath() string { return p.cfg.AppPath }

// NewState returns a fresh anti-forgery state.
func NewState() string { return uuid.NewString() }

// AuthorizeURL is the GitHub consent page for state.
func (p *Provider) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("scope", p.cfg.Scope)
	q.Set("state", state)
	if p.cfg.RedirectURL != "" {
		q.Set("redirect_uri", p.cfg.RedirectURL)
	}
	return p.cfg.AuthBaseURL + "/login/oauth/authorize?" + q.Encode()
}

// Callback completes the flow. cookieState is the value of StateCookie.
// The code is never exchanged unless state matches it.
func (p *Provider) Callback(ctx context.Context, code, state, cookieState string) (Session, error) {
	if code == "" {
		return Session{}, &CallbackError{Code: CodeMissingCode}
	}
	if state == "" || cookieState == "" || state != cookieState {
		return Session{}, &CallbackError{Code: CodeInvalidState}
	}
	if !p.Configured() {
		return Session{}, &CallbackError{Code: CodeNotConfigured}
	}

	token, err := p.exchange(ctx, code)
	if err != nil {
		p.logger.Warn("Token exchange failed", zap.Error(err))
		return Session{}, &CallbackError{Code: CodeTokenExchangeFailed, Err: err}
	}

	user, err := p.fetchUser(ctx, token)
	if err != nil {
		p.logger.Warn("User fetch failed", zap.Error(err))
		return Session{}, &CallbackError{Code: CodeUserFetchFailed, Err: err}
	}

	p.logger.Info("GitHub sign-in", zap.String("login", user.Login))
	return Session{User: user, ExpiresAt: p.clock().Add(SessionTTL)}, nil
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (p *Provider) exchange(ctx context.Context, code string) (string, error) {
	body, err := sonic.Marshal(map[string]string{
		"client_id":     p.cfg.ClientID,
		"client_secret": p.cfg.ClientSecret,
		"code":          code,
		"redirect_uri":  p.cfg.RedirectURL,
	})
	if err != nil {
		return "", err
	}

	resp, err := p.auth.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		Path:   "/login/oauth/access_token",
		Header: http.Header{
			"Accept":       []string{"application/json"},
			"Content-Type": []string{"application/json"},
		},
		Body: body,
	})
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.Status)
	}

	var tr tokenResponse
	if err := sonic.Unmarshal(resp.Body, &tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.Error != "" {
		return "", fmt.Errorf("%s: %s", tr.Error, tr.ErrorDescription)
	}
	if tr.AccessToken == "" {
		return "", errors.New("no access token in response")
	}
	return tr.AccessToken, nil
}

func (p *Provider) fetchUser(ctx context.Context, token string) (GithubUser, error) {
	resp, err := p.api.Do(ctx, upstream.Request{
		Path:   "/user",
		Header: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		return GithubUser{}, err
	}
	if resp.Status != http.StatusOK {
		return GithubUser{}, fmt.Errorf("user endpoint returned %d", resp.Status)
	}

	var user GithubUser
	if err := sonic.Unmarshal(resp.Body, &user); err != nil {
		return GithubUser{}, fmt.Errorf("failed to decode user: %w", err)
	}
	if user.Login == "" {
		return GithubUser{}, errors.New("user response has no login")
	}
	return user, nil
}
