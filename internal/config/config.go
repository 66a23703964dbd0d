package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/glutton4gainz/edge/internal/route"
)

// Route guard modes.
const (
	RouteModePassthrough = "passthrough"
	RouteModeEnforce     = "enforce"
)

const minJWTSecretLen = 32

// envListKeys are the keys whose APP__ value is a comma-separated list.
var envListKeys = map[string]bool{
	"routes.protected_prefixes": true,
	"routes.auth_prefixes":      true,
}

// Paths served by fixed routes. A prefix may not sit on or under a tree, nor
// equal a file.
var (
	reservedTrees = []string{"/health", "/static", "/icons", "/api"}
	reservedFiles = []string{"/favicon.ico", "/manifest.json"}
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Routes   RoutesConfig   `koanf:"routes"`
	Session  SessionConfig  `koanf:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Mode       string `koanf:"mode"`
	CSRFSecret string `koanf:"csrf_secret"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// RoutesConfig holds the route classifier and guard settings.
type RoutesConfig struct {
	ProtectedPrefixes []string `koanf:"protected_prefixes"`
	AuthPrefixes      []string `koanf:"auth_prefixes"`
	Mode              string   `koanf:"mode"`
	LoginPath         string   `koanf:"login_path"`
	DashboardPath     string   `koanf:"dashboard_path"`
}

// SessionConfig holds settings for verifying sessions issued by the
// external auth provider.
type SessionConfig struct {
	CookieName    string `koanf:"cookie_name"`
	JWTSecret     string `koanf:"jwt_secret"`
	Issuer        string `koanf:"issuer"`
	Audience      string `koanf:"audience"`
	PurgeInterval string `koanf:"purge_interval"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator, so APP__ROUTES__LOGIN_PATH=/signin overrides
// routes.login_path. The prefix lists take comma-separated values, as in
// APP__ROUTES__PROTECTED_PREFIXES=/app,/coach.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.ProviderWithValue("APP__", ".", func(s, v string) (string, any) {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		if envListKeys[key] {
			return key, strings.Split(v, ",")
		}
		return key, v
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values, and fills
// in defaults for optional fields.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateRoutes(); err != nil {
		return err
	}
	return c.validateSession()
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host
	return nil
}

func (c *Config) validateDatabase() error {
	db := &c.Database
	switch db.Driver {
	case "sqlite":
		path := strings.TrimSpace(db.SQLite.Path)
		if path == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		db.SQLite.Path = path
	case "postgres":
		pg := &db.Postgres
		pg.Host = strings.TrimSpace(pg.Host)
		pg.User = strings.TrimSpace(pg.User)
		pg.DBName = strings.TrimSpace(pg.DBName)
		pg.SSLMode = strings.TrimSpace(pg.SSLMode)
		switch {
		case pg.Host == "":
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		case pg.Port < 1 || pg.Port > 65535:
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
		case pg.User == "":
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		case pg.DBName == "":
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		switch pg.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q", pg.SSLMode)
		}
		if c.Server.Mode == gin.ReleaseMode && !strings.HasPrefix(pg.SSLMode, "require") && !strings.HasPrefix(pg.SSLMode, "verify") {
			return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", db.Driver, "sqlite", "postgres")
	}

	db.Pool.ConnMaxLifetime = strings.TrimSpace(db.Pool.ConnMaxLifetime)
	if err := validateOptionalDuration("database.pool.conn_max_lifetime", db.Pool.ConnMaxLifetime); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

func (c *Config) validateRoutes() error {
	r := &c.Routes

	protected, err := normalizePrefixes("routes.protected_prefixes", r.ProtectedPrefixes)
	if err != nil {
		return err
	}
	if len(protected) == 0 {
		protected = route.DefaultProtectedPrefixes()
	}
	r.ProtectedPrefixes = protected

	auth, err := normalizePrefixes("routes.auth_prefixes", r.AuthPrefixes)
	if err != nil {
		return err
	}
	if len(auth) == 0 {
		auth = route.DefaultAuthPrefixes()
	}
	r.AuthPrefixes = auth

	mode := strings.ToLower(strings.TrimSpace(r.Mode))
	switch mode {
	case "":
		mode = RouteModePassthrough
	case RouteModePassthrough, RouteModeEnforce:
	default:
		return fmt.Errorf("invalid routes.mode %q: must be one of %q, %q", r.Mode, RouteModePassthrough, RouteModeEnforce)
	}
	r.Mode = mode

	r.LoginPath = strings.TrimSpace(r.LoginPath)
	if r.LoginPath == "" {
		r.LoginPath = "/login"
	}
	r.DashboardPath = strings.TrimSpace(r.DashboardPath)
	if r.DashboardPath == "" {
		r.DashboardPath = "/app"
	}
	for _, p := range []struct{ key, val string }{
		{"routes.login_path", r.LoginPath},
		{"routes.dashboard_path", r.DashboardPath},
	} {
		if !strings.HasPrefix(p.val, "/") || strings.HasPrefix(p.val, "//") {
			return fmt.Errorf("invalid %s %q: must be a local path starting with '/'", p.key, p.val)
		}
	}

	// Sending anonymous users to a protected login page would loop.
	if mode == RouteModeEnforce {
		classifier := route.NewClassifier(protected, auth)
		if classifier.Classify(r.LoginPath) == route.Protected {
			return fmt.Errorf("invalid routes.login_path %q: must not match a protected prefix in enforce mode", r.LoginPath)
		}
	}
	return nil
}

func (c *Config) validateSession() error {
	s := &c.Session

	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = "sb-access-token"
	}
	s.JWTSecret = strings.TrimSpace(s.JWTSecret)
	s.Issuer = strings.TrimSpace(s.Issuer)
	s.Audience = strings.TrimSpace(s.Audience)

	if s.JWTSecret != "" && len(s.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("invalid session.jwt_secret: must be at least %d characters", minJWTSecretLen)
	}
	if c.Routes.Mode == RouteModeEnforce && s.JWTSecret == "" {
		return fmt.Errorf("session.jwt_secret is required when routes.mode is %q", RouteModeEnforce)
	}

	s.PurgeInterval = strings.TrimSpace(s.PurgeInterval)
	if s.PurgeInterval == "" {
		s.PurgeInterval = "1h"
	}
	return validateOptionalDuration("session.purge_interval", s.PurgeInterval)
}

// normalizePrefixes trims entries, drops duplicates and rejects entries that
// are empty, do not start with '/' or would shadow a fixed route. Order is
// preserved.
func normalizePrefixes(key string, in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", key, i)
		}
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("invalid %s[%d] %q: must start with '/'", key, i, in[i])
		}
		if strings.ContainsAny(p, ":*?# \t") {
			return nil, fmt.Errorf("invalid %s[%d] %q: must be a plain path", key, i, in[i])
		}
		if reserved := reservedPath(p); reserved != "" {
			return nil, fmt.Errorf("invalid %s[%d] %q: conflicts with the %s route", key, i, in[i], reserved)
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// reservedPath returns the fixed route p collides with, or "".
func reservedPath(p string) string {
	p = strings.TrimSuffix(p, "/")
	for _, r := range reservedTrees {
		if p == r || strings.HasPrefix(p, r+"/") {
			return r
		}
	}
	for _, r := range reservedFiles {
		if p == r {
			return r
		}
	}
	return ""
}

func validateOptionalDuration(key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", key, v)
	}
	return nil
}
