package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/domain"
	"github.com/glutton4gainz/edge/internal/route"
)

const (
	classificationContextKey = "route_classification"
	sessionContextKey        = "session"
)

// SessionChecker reports the session carried by a request. It returns a
// domain error matching domain.IsNoSession when there is none.
type SessionChecker interface {
	CheckSession(r *http.Request) (*domain.Session, error)
}

// GuardConfig configures RouteGuard.
type GuardConfig struct {
	// Enforce turns on redirects. When false the guard only labels requests.
	Enforce       bool
	LoginPath     string
	DashboardPath string
	// Sessions is consulted only when Enforce is set. A nil checker treats
	// every request as anonymous.
	Sessions SessionChecker
	Logger   *slog.Logger
}

// RouteGuard returns a gin middleware that classifies each request path
// before any page handler runs.
//
// Paths matching route.Excluded skip the guard entirely. Every other
// request gets its classification stored in the gin context (see
// GetClassification). In passthrough mode (Enforce unset) the request is
// then forwarded unchanged; with Enforce set, anonymous requests for
// protected paths are sent to LoginPath and signed-in requests for the auth
// flow are sent to DashboardPath.
func RouteGuard(classifier *route.Classifier, cfg GuardConfig) gin.HandlerFunc {
	if classifier == nil {
		classifier = route.DefaultClassifier()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = "/app"
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if route.Excluded(path) {
			c.Next()
			return
		}

		class := classifier.Classify(path)
		c.Set(classificationContextKey, class)
		logger.DebugContext(c.Request.Context(), "route classified",
			slog.String("path", path),
			slog.String("route", class.String()),
		)

		if !cfg.Enforce {
			c.Next()
			return
		}

		var (
			sess *domain.Session
			err  error
		)
		if cfg.Sessions != nil {
			sess, err = cfg.Sessions.CheckSession(c.Request)
		} else {
			err = domain.ErrUnauthenticated
		}
		if err != nil && !domain.IsNoSession(err) {
			logger.WarnContext(c.Request.Context(), "session check failed",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
		authenticated := err == nil && sess != nil

		switch route.Decide(class, authenticated) {
		case route.RedirectLogin:
			reason := domain.ErrUnauthenticated
			if domain.IsSessionExpired(err) {
				reason = domain.ErrSessionExpired
			}
			target := cfg.LoginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			logger.DebugContext(c.Request.Context(), "route guard redirect",
				slog.String("path", path),
				slog.String("route", class.String()),
				slog.String("reason", reason.Message),
			)
			redirect(c, target)
		case route.RedirectDashboard:
			logger.DebugContext(c.Request.Context(), "route guard redirect",
				slog.String("path", path),
				slog.String("route", class.String()),
				slog.String("reason", domain.ErrAuthenticatedOnAuthRoute.Message),
			)
			redirect(c, cfg.DashboardPath)
		default:
			if authenticated {
				c.Set(sessionContextKey, sess)
			}
			c.Next()
		}
	}
}

// redirect aborts the chain with a 302, or with an HX-Redirect header for
// htmx requests, which do not follow redirects into a full page load.
func redirect(c *gin.Context, target string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", target)
		c.AbortWithStatus(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// GetClassification returns the classification stored by RouteGuard. The
// second result is false for excluded paths and unguarded engines.
func GetClassification(c *gin.Context) (route.Classification, bool) {
	v, ok := c.Get(classificationContextKey)
	if !ok {
		return route.Unclassified, false
	}
	class, ok := v.(route.Classification)
	return class, ok
}

// GetSession returns the session RouteGuard verified for this request, if any.
func GetSession(c *gin.Context) (*domain.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*domain.Session)
	return sess, ok && sess != nil
}
