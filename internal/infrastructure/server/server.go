package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/cradlehq/cradle/backend/internal/api/http"
	"github.com/cradlehq/cradle/backend/internal/api/middleware"
	"github.com/cradlehq/cradle/backend/internal/api/ws"
	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/domain/oauth"
	"github.com/cradlehq/cradle/backend/internal/domain/recent"
	"github.com/cradlehq/cradle/backend/internal/domain/registry"
	"github.com/cradlehq/cradle/backend/internal/domain/session"
	"github.com/cradlehq/cradle/backend/internal/domain/user"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/config"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/monitoring"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/tracing"
	"github.com/cradlehq/cradle/backend/internal/upstream"
)

// Responses smaller than this are sent uncompressed.
const gzipMinSize = 1024

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	http     *http.Server
	registry *registry.Manager
	sessions *session.Manager
	recent   recent.Store
	users    *user.Store
	limiter  *middleware.RateLimiter
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	config   *config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, version string) (*Server, error) {
	// Initialize logger
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing Cradle backend",
		zap.String("port", cfg.Server.Port),
		zap.String("version", version),
	)

	// Metrics first, other components report into them
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("cradle-backend", logger)

	// Plugin catalog: builtins plus any extension files on disk
	reg, err := registry.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to build plugin registry: %w", err)
	}
	if cfg.Registry.CatalogDir != "" {
		res, err := registry.NewSeeder(reg, cfg.Registry.CatalogDir, logger).Seed(context.Background())
		if err != nil {
			logger.Warn("Failed to seed plugin catalog", zap.Error(err))
		} else {
			logger.Info("Seeded plugin catalog",
				zap.Int("files", res.Files),
				zap.Int("loaded", res.Loaded),
				zap.Int("failed", res.Failed))
		}
	}
	metrics.SetRegistryPlugins(reg.Stats().TotalTypes)

	parser := blueprint.NewParser(reg)
	sessions := session.NewManager(parser,
		session.WithMaxSessions(cfg.Session.MaxSessions),
		session.WithIdleTTL(cfg.Session.IdleTTL),
		session.WithLogger(logger),
		session.WithStoreOptions(blueprint.WithObserver(func(kind string, effect blueprint.Effect) {
			metrics.RecordMutation(kind, effect.String())
		})),
	)

	checks := map[string]apihttp.Pinger{}

	// Recent list: Redis when configured, process memory otherwise
	var recentStore recent.Store
	if cfg.Redis.URL != "" {
		rs, err := recent.NewRedisStore(recent.RedisOptions{URL: cfg.Redis.URL, TTL: cfg.Redis.TTL})
		if err != nil {
			logger.Warn("Redis unavailable, keeping recent lists in memory", zap.Error(err))
			recentStore = recent.NewMemoryStore()
		} else {
			logger.Info("Connected to Redis")
			recentStore = rs
			checks["redis"] = rs
		}
	} else {
		recentStore = recent.NewMemoryStore()
	}

	// User store is optional; its routes report a configuration error without it
	var users *user.Store
	var userDeps apihttp.UserStore
	if cfg.Database.URL != "" {
		users, err = user.Open(user.Options{
			URL:          cfg.Database.URL,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			logger.Warn("Failed to open user database", zap.Error(err))
		} else {
			logger.Info("Connected to user database")
			userDeps = users
			checks["database"] = users
		}
	}

	recordCall := func(service string, status int, took time.Duration) {
		label := "error"
		if status > 0 {
			label = strconv.Itoa(status)
		}
		metrics.RecordUpstreamCall(service, label, took)
	}

	provider := oauth.NewProvider(oauth.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		AppPath:      cfg.OAuth.AppURL,
	}, logger)

	maxxit := upstream.NewClient(upstream.Config{
		Name:      "maxxit",
		BaseURL:   cfg.Maxxit.URL,
		APIKey:    cfg.Maxxit.APIKey,
		Timeout:   cfg.Maxxit.Timeout,
		RateLimit: cfg.Maxxit.RateLimit,
		OnCall:    recordCall,
	})
	generator := upstream.NewGenerator(upstream.NewClient(upstream.Config{
		Name:    "generator",
		BaseURL: cfg.Generator.URL,
		Timeout: cfg.Generator.Timeout,
		OnCall:  recordCall,
	}))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(corsCfg))

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		router.Use(limiter.Middleware())
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Registry:      reg,
		Parser:        parser,
		Sessions:      sessions,
		Recent:        recentStore,
		Users:         userDeps,
		OAuth:         provider,
		Maxxit:        maxxit,
		Generator:     generator,
		Metrics:       metrics,
		Logger:        logger,
		Checks:        checks,
		SecureCookies: cfg.Server.SecureCookies,
		Version:       version,
	})
	stream := ws.NewHandler(sessions, metrics, logger)
	handlers.Register(router, stream.HandleStream)

	handler, err := compress(router)
	if err != nil {
		return nil, err
	}

	logger.Info("Server initialized successfully",
		zap.Int("plugins", reg.Stats().TotalTypes),
		zap.Bool("oauth", provider.Configured()),
		zap.Bool("maxxit", maxxit.Configured()),
		zap.Bool("generator", generator.Configured()),
	)

	return &Server{
		router:   router,
		handler:  handler,
		registry: reg,
		sessions: sessions,
		recent:   recentStore,
		users:    users,
		limiter:  limiter,
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
		config:   cfg,
	}, nil
}

// compress gzips responses, leaving WebSocket upgrades on the bare router
// since they need to hijack the connection.
func compress(router http.Handler) (http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip wrapper: %w", err)
	}
	gz := wrap(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	}), nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the background workers and serves HTTP until Close.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sessions.Run(ctx, s.config.Session.SweepInterval, func(removed int) {
			s.metrics.AddSessionsExpired(removed)
			s.metrics.SetSessionsActive(s.sessions.Count())
		})
	}()
	if s.limiter != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.limiter.Run(ctx, time.Minute)
		}()
	}

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	// Ends open streams too
	s.sessions.Close()

	if rs, ok := s.recent.(*recent.RedisStore); ok {
		if err := rs.Close(); err != nil {
			s.logger.Error("Failed to close Redis", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if s.users != nil {
		if err := s.users.Close(); err != nil {
			s.logger.Error("Failed to close user database", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
