package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/domain/oauth"
	"github.com/cradlehq/cradle/backend/internal/domain/recent"
	"github.com/cradlehq/cradle/backend/internal/domain/registry"
	"github.com/cradlehq/cradle/backend/internal/domain/session"
	"github.com/cradlehq/cradle/backend/internal/domain/user"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/monitoring"
	"github.com/cradlehq/cradle/backend/internal/shared/utils"
	"github.com/cradlehq/cradle/backend/internal/upstream"
)

// UserStore is the user persistence the handlers need.
type UserStore interface {
	Upsert(ctx context.Context, p user.Profile) (*user.User, error)
	FindByWallet(ctx context.Context, address string) (*user.User, error)
}

// Pinger reports the health of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the HTTP API. Users, Recent and the upstream
// clients may be nil; their routes then answer with a configuration error.
type Deps struct {
	Registry  *registry.Manager
	Parser    *blueprint.Parser
	Sessions  *session.Manager
	Recent    recent.Store
	Users     UserStore
	OAuth     *oauth.Provider
	Maxxit    *upstream.Client
	Generator *upstream.Generator
	Metrics   *monitoring.Metrics
	Logger    *logging.Logger
	// Checks are pinged by /health, keyed by name.
	Checks        map[string]Pinger
	SecureCookies bool
	Version       string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Deps
	logger  *logging.Logger
	started time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}
	return &Handlers{
		Deps:    deps,
		logger:  logging.OrNop(deps.Logger).Named("api"),
		started: time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Cradle Blueprint Service",
		"version": h.Version,
	})
}

// Health reports the session count, catalog size and dependency status.
// A failing dependency degrades the status but keeps the 200, since the
// editor itself works without any of them.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := gin.H{}
	for name, p := range h.Checks {
		if p == nil {
			deps[name] = "disabled"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	upstreams := gin.H{}
	if h.Maxxit != nil {
		upstreams["maxxit"] = gin.H{"configured": h.Maxxit.Configured(), "breaker": h.Maxxit.BreakerState().String()}
	}
	if h.Generator != nil {
		upstreams["generator"] = gin.H{"configured": h.Generator.Configured()}
	}

	body := gin.H{
		"status":       status,
		"uptime":       time.Since(h.started).Round(time.Second).String(),
		"sessions":     h.Sessions.Count(),
		"registry":     h.Registry.Stats(),
		"dependencies": deps,
		"upstreams":    upstreams,
		"metrics":      h.Metrics.Snapshot(),
	}
	c.JSON(http.StatusOK, body)
}

// errorJSON writes {error} with status.
func errorJSON(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// configError writes the 500 {error, hint} used for missing configuration.
func configError(c *gin.Context, what, hint string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": what + " is not configured",
		"hint":  hint,
	})
}

// readBody reads at most limit bytes of the request body. Oversized bodies
// fail with utils.ErrPayloadTooLarge.
func readBody(c *gin.Context, limit int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := utils.NewJSONSizeValidator(limit).ValidateSize(data); err != nil {
		return nil, err
	}
	return data, nil
}

// bodyStatus maps a readBody error to 413 or 400.
func bodyStatus(err error) int {
	if errors.Is(err, utils.ErrPayloadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// bindJSON decodes the body into v. An empty body leaves v untouched.
func bindJSON(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		errorJSON(c, http.StatusBadRequest, err)
		return false
	}
	return true
}
