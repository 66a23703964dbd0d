package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/glutton4gainz/edge/internal/config"
	"github.com/glutton4gainz/edge/internal/domain"
	"github.com/glutton4gainz/edge/internal/middleware"
	"github.com/glutton4gainz/edge/internal/module/page"
	"github.com/glutton4gainz/edge/internal/module/routing"
	"github.com/glutton4gainz/edge/internal/module/session"
	"github.com/glutton4gainz/edge/internal/route"
	"github.com/glutton4gainz/edge/web"
)

const (
	minReleaseCSRFSecretLen = 32
	shutdownTimeout         = 5 * time.Second
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine   *gin.Engine
	db       *gorm.DB
	logger   *logger.Logger
	cfg      *config.Config
	sessions domain.SessionService
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database, the route classifier and session
// verification, the middleware chain, template rendering and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 reloads templates from disk and exposes debug output")
	}

	// 2. Resolve CSRF secret before opening anything else.
	csrfSecret, generated, err := resolveCSRFSecret(cfg.Server.Mode, cfg.Server.CSRFSecret)
	if err != nil {
		return nil, err
	}
	if generated {
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 3. Setup database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	// 4. AutoMigrate in debug mode only.
	if cfg.Server.Mode == gin.DebugMode {
		if err := db.AutoMigrate(&domain.RevokedSession{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("auto migration completed")
	}

	// 5. Manual dependency injection: classifier, verifier → repository → service → handlers.
	classifier := route.NewClassifier(cfg.Routes.ProtectedPrefixes, cfg.Routes.AuthPrefixes)
	verifier := session.NewVerifier(session.VerifierConfig{
		Secret:   cfg.Session.JWTSecret,
		Issuer:   cfg.Session.Issuer,
		Audience: cfg.Session.Audience,
	})
	sessionSvc := session.NewSessionService(verifier, session.NewRevocationRepository(db))
	checker := session.NewRequestChecker(sessionSvc, cfg.Session.CookieName)

	modules := []Module{
		session.NewModule(session.NewSessionHandler(sessionSvc, session.HandlerConfig{
			CookieName: cfg.Session.CookieName,
			LoginPath:  cfg.Routes.LoginPath,
			Secure:     cfg.Server.Mode == gin.ReleaseMode,
		})),
		routing.NewModule(routing.NewRouteHandler(classifier, cfg.Routes.Mode)),
		page.NewModule(page.NewPageHandler(cfg.Routes.DashboardPath), classifier),
	}

	// 6. Create Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	// Paths are served as requested; /pricing/ is not redirected to /pricing.
	engine.RedirectTrailingSlash = false
	// Logger runs ahead of the guard so redirects it aborts are still logged.
	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.RouteGuard(classifier, middleware.GuardConfig{
			Enforce:       cfg.Routes.Mode == config.RouteModeEnforce,
			LoginPath:     cfg.Routes.LoginPath,
			DashboardPath: cfg.Routes.DashboardPath,
			Sessions:      checker,
			Logger:        log.Logger,
		}),
	)
	log.Info("route guard configured",
		slog.String("mode", cfg.Routes.Mode),
		slog.Any("protected_prefixes", classifier.ProtectedPrefixes()),
		slog.Any("auth_prefixes", classifier.AuthPrefixes()),
	)

	// 7. Determine filesystem mode and set up template renderer.
	var webFS fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		webFS, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug web fs: %w", err)
		}
	} else {
		webFS = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(webFS, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 8. Register all routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		DB:         db,
		WebFS:      webFS,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine:   engine,
		db:       db,
		logger:   log,
		cfg:      cfg,
		sessions: sessionSvc,
	}, nil
}

// resolveCSRFSecret returns the configured secret, or a random one outside
// release mode when the configured value is a placeholder. In release mode
// the secret must be long and mix at least three character classes.
func resolveCSRFSecret(mode, secret string) (string, bool, error) {
	if isPlaceholderCSRFSecret(secret) {
		if mode == gin.ReleaseMode {
			return "", false, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", false, fmt.Errorf("generate csrf secret: %w", err)
		}
		return hex.EncodeToString(b), true, nil
	}

	secret = strings.TrimSpace(secret)
	if mode == gin.ReleaseMode {
		if len(secret) < minReleaseCSRFSecretLen {
			return "", false, fmt.Errorf("csrf_secret must be at least %d characters in release mode", minReleaseCSRFSecretLen)
		}
		if characterClasses(secret) < 3 {
			return "", false, errors.New("csrf_secret must include at least 3 character classes (lower, upper, digit, symbol) in release mode")
		}
	}
	return secret, false, nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

func characterClasses(s string) int {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	n := 0
	for _, ok := range []bool{lower, upper, digit, symbol} {
		if ok {
			n++
		}
	}
	return n
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and the revocation purger, then blocks until a
// shutdown signal is received. It shuts down gracefully with a 5-second
// deadline and closes the database connection and logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Purge expired revocations in the background until shutdown.
	purgeCtx, cancelPurge := context.WithCancel(ctx)
	var purgeWG sync.WaitGroup
	if interval := a.purgeInterval(); a.sessions != nil && interval > 0 {
		purgeWG.Add(1)
		go func() {
			defer purgeWG.Done()
			session.RunPurger(purgeCtx, a.sessions, interval, log)
		}()
	}

	// Start HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr), slog.String("route_mode", a.cfg.Routes.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	cancelPurge()
	purgeWG.Wait()

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("database close error", slog.Any("error", err))
			} else {
				log.Info("database connection closed")
			}
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

// purgeInterval parses session.purge_interval. Config validation has
// already rejected malformed values, so a parse failure disables the purger.
func (a *App) purgeInterval() time.Duration {
	d, err := time.ParseDuration(a.cfg.Session.PurgeInterval)
	if err != nil {
		return 0
	}
	return d
}
