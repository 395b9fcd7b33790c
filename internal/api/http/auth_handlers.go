package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/cradlehq/cradle/backend/internal/domain/oauth"
)

func errorRedirect(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(code))
}

// GithubLogin stores a fresh state and redirects to GitHub
func (h *Handlers) GithubLogin(c *gin.Context) {
	if h.OAuth == nil || !h.OAuth.Configured() {
		errorRedirect(c, oauth.CodeNotConfigured)
		return
	}
	state := oauth.NewState()
	http.SetCookie(c.Writer, oauth.NewStateCookie(state, h.SecureCookies))
	c.Redirect(http.StatusFound, h.OAuth.AuthorizeURL(state))
}

// GithubCallback completes sign-in and sets the session cookie. Every
// failure redirects to /?error=<code>.
func (h *Handlers) GithubCallback(c *gin.Context) {
	if h.OAuth == nil {
		errorRedirect(c, oauth.CodeNotConfigured)
		return
	}

	cookieState, _ := c.Cookie(oauth.StateCookie)
	http.SetCookie(c.Writer, oauth.ClearCookie(oauth.StateCookie, h.SecureCookies))

	sess, err := h.OAuth.Callback(c.Request.Context(), c.Query("code"), c.Query("state"), cookieState)
	if err != nil {
		var cbErr *oauth.CallbackError
		if errors.As(err, &cbErr) {
			errorRedirect(c, cbErr.Code)
			return
		}
		errorRedirect(c, oauth.CodeTokenExchangeFailed)
		return
	}

	value, err := sess.Encode()
	if err != nil {
		errorRedirect(c, oauth.CodeUserFetchFailed)
		return
	}
	http.SetCookie(c.Writer, oauth.NewSessionCookie(value, h.SecureCookies))
	c.Redirect(http.StatusFound, h.OAuth.AppPath())
}

// AuthSession returns the signed-in profile, 401 when there is none
func (h *Handlers) AuthSession(c *gin.Context) {
	if h.OAuth == nil {
		errorJSON(c, http.StatusUnauthorized, oauth.ErrNoSession)
		return
	}
	sess, err := oauth.FromRequest(c.Request, h.OAuth.Now())
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout clears the session cookie
func (h *Handlers) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, oauth.ClearCookie(oauth.SessionCookie, h.SecureCookies))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
