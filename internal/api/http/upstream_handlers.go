package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/shared/utils"
	"github.com/cradlehq/cradle/backend/internal/upstream"
)

// MaxxitProxy forwards any method under /api/maxxit to the Maxxit API and
// relays its status and JSON body.
func (h *Handlers) MaxxitProxy(c *gin.Context) {
	if h.Maxxit == nil {
		configError(c, "Maxxit API", "set MAXXIT_API_URL")
		return
	}

	body, err := readBody(c, utils.MaxJSONSize)
	if err != nil {
		errorJSON(c, bodyStatus(err), err)
		return
	}

	header := http.Header{}
	if ct := c.GetHeader("Content-Type"); ct != "" {
		header.Set("Content-Type", ct)
	}
	if len(body) == 0 {
		body = nil
	}

	reply := h.Maxxit.Relay(c.Request.Context(), upstream.Request{
		Method: c.Request.Method,
		Path:   c.Param("path"),
		Query:  c.Request.URL.Query(),
		Header: header,
		Body:   body,
	}, "set MAXXIT_API_URL")
	if reply.Status >= http.StatusInternalServerError {
		h.logger.Warn("Maxxit call failed", zap.Int("status", reply.Status), zap.String("path", c.Param("path")))
	}
	c.JSON(reply.Status, reply.Body)
}

// Generate validates the session blueprint and hands it to the code
// generation service. A blueprint with errors is rejected with 422 and the
// validation report.
func (h *Handlers) Generate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if h.Generator == nil {
		configError(c, "code generator", "set GENERATOR_URL")
		return
	}

	report := s.Store.Validate(h.Registry)
	if !report.Valid {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "blueprint has validation errors",
			"report": report,
		})
		return
	}

	reply := h.Generator.Generate(c.Request.Context(), s.Store.Blueprint())
	c.JSON(reply.Status, reply.Body)
}
