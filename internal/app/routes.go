package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/glutton4gainz/edge/internal/middleware"
)

const (
	assetCacheControl    = "public, max-age=86400"
	manifestCacheControl = "public, max-age=3600"
	healthPingTimeout    = time.Second
)

// RouteDeps holds everything RegisterRoutes needs.
type RouteDeps struct {
	Modules []Module
	DB      *gorm.DB
	// WebFS holds the static/ tree (manifest.json, favicon.ico, icons/).
	WebFS      fs.FS
	Mode       string
	CSRFSecret string
}

// RegisterRoutes registers assets, the health check, every module and the
// NoRoute handler on r. Module pages run behind CSRF; /api/v1 does not.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(deps.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}
	if deps.WebFS == nil {
		return errors.New("web filesystem is required")
	}

	if err := registerAssetRoutes(r, deps.WebFS, deps.Mode == gin.ReleaseMode); err != nil {
		return fmt.Errorf("register asset routes: %w", err)
	}

	r.GET("/health", healthHandler(deps.DB))

	api := r.Group("/api/v1")
	pages := r.Group("/")
	pages.Use(middleware.CSRF(deps.CSRFSecret))

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, pages)
	}

	r.NoRoute(func(c *gin.Context) {
		renderError(c, http.StatusNotFound, "not found")
	})
	return nil
}

// registerAssetRoutes serves the PWA assets the route guard leaves alone
// (/manifest.json, /favicon.ico, /icons/) and the remaining /static tree.
// In release mode responses carry a Cache-Control header.
func registerAssetRoutes(r *gin.Engine, webFS fs.FS, cache bool) error {
	staticFS, err := fs.Sub(webFS, "static")
	if err != nil {
		return fmt.Errorf("sub static: %w", err)
	}
	iconsFS, err := fs.Sub(staticFS, "icons")
	if err != nil {
		return fmt.Errorf("sub icons: %w", err)
	}

	assetCache, manifestCache := "", ""
	if cache {
		assetCache, manifestCache = assetCacheControl, manifestCacheControl
	}

	r.GET("/manifest.json", fileHandler(staticFS, "manifest.json", "application/manifest+json", manifestCache))
	r.GET("/favicon.ico", fileHandler(staticFS, "favicon.ico", "image/x-icon", manifestCache))
	r.GET("/icons/*filepath", treeHandler(iconsFS, "/icons", assetCache))
	r.GET("/static/*filepath", treeHandler(staticFS, "/static", assetCache))
	return nil
}

// fileHandler serves a single file from fsys.
func fileHandler(fsys fs.FS, name, contentType, cacheControl string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			renderError(c, http.StatusNotFound, "not found")
			return
		}
		if cacheControl != "" {
			c.Header("Cache-Control", cacheControl)
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

// treeHandler serves fsys under prefix.
func treeHandler(fsys fs.FS, prefix, cacheControl string) gin.HandlerFunc {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.FS(fsys)))
	return func(c *gin.Context) {
		if cacheControl != "" {
			c.Header("Cache-Control", cacheControl)
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

// healthHandler reports whether the database answers a ping.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		if err := pingDB(c.Request.Context(), db); err != nil {
			dbStatus = "error"
		}

		status, code := "ok", http.StatusOK
		if dbStatus != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"components": gin.H{"database": dbStatus},
		})
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
