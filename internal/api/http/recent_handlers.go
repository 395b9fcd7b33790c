package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/domain/oauth"
	"github.com/cradlehq/cradle/backend/internal/domain/recent"
)

// owner scopes the recent list to the signed-in GitHub user; anonymous
// callers share the unscoped list.
func (h *Handlers) owner(c *gin.Context) string {
	if h.OAuth == nil {
		return ""
	}
	s, err := oauth.FromRequest(c.Request, h.OAuth.Now())
	if err != nil {
		return ""
	}
	return s.User.Login
}

type saveRequest struct {
	IncludeJSON bool `json:"includeJson"`
}

// SaveToRecent pushes the session blueprint onto the recent list
func (h *Handlers) SaveToRecent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if h.Recent == nil {
		configError(c, "recent blueprint storage", "set REDIS_URL or run with the in-memory store")
		return
	}
	var req saveRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := recent.EntryFor(s.Store.Blueprint(), req.IncludeJSON)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	list, err := h.Recent.Push(c.Request.Context(), h.owner(c), entry)
	if err != nil {
		h.logger.Error("Failed to save recent blueprint", zap.Error(err), zap.String("blueprint_id", entry.ID))
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	h.Metrics.IncRecentSaves()
	c.JSON(http.StatusOK, gin.H{"recent": list})
}

// ListRecent returns the caller's recent blueprints, newest first
func (h *Handlers) ListRecent(c *gin.Context) {
	if h.Recent == nil {
		c.JSON(http.StatusOK, gin.H{"recent": []recent.Entry{}})
		return
	}
	list, err := h.Recent.List(c.Request.Context(), h.owner(c))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recent": list})
}

// ClearRecent empties the caller's recent list
func (h *Handlers) ClearRecent(c *gin.Context) {
	if h.Recent != nil {
		if err := h.Recent.Clear(c.Request.Context(), h.owner(c)); err != nil {
			errorJSON(c, http.StatusInternalServerError, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
