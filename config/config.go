package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	TokenStrategyOpaque = "opaque"
	TokenStrategyJWT    = "jwt"
)

// AppConfig holds file and environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort            string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for list caching and jwt revocation; empty host disables it
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Authentication
	AuthDebug            bool
	TokenStrategy        string
	JWTSecret            string
	TokenTTLHours        int
	SessionLifetimeHours int
	// Blog behaviour
	MaxReplyDepth   int
	DefaultPageSize int
	MaxPageSize     int
}

var cfg AppConfig
var loaded bool

// envBindings maps config keys onto the environment variables that override them.
var envBindings = map[string]string{
	"app.port":                    "APP_PORT",
	"app.rate_limit_per_minute":   "RATE_LIMIT_PER_MINUTE",
	"app.allowed_origins":         "CORS_ALLOWED_ORIGINS",
	"gin.mode":                    "GIN_MODE",
	"gin.log_path":                "GIN_PATH",
	"database.uri":                "DATABASE_URI",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"redis.host":                  "REDIS_HOST",
	"redis.port":                  "REDIS_PORT",
	"redis.db":                    "REDIS_DB",
	"redis.password":              "REDIS_PASSWORD",
	"redis.cache_ttl_seconds":     "CACHE_TTL_SECONDS",
	"log.level":                   "LOG_LEVEL",
	"log.path":                    "LOG_PATH",
	"log.max_size_mb":             "LOG_MAX_SIZE_MB",
	"log.max_backups":             "LOG_MAX_BACKUPS",
	"log.max_age_days":            "LOG_MAX_AGE_DAYS",
	"log.compress":                "LOG_COMPRESS",
	"auth.debug":                  "AUTH_DEBUG",
	"auth.token_strategy":         "AUTH_TOKEN_STRATEGY",
	"auth.jwt_secret":             "JWT_SECRET",
	"auth.token_ttl_hours":        "TOKEN_TTL_HOURS",
	"auth.session_lifetime_hours": "SESSION_LIFETIME_HOURS",
	"blog.max_reply_depth":        "MAX_REPLY_DEPTH",
	"blog.default_page_size":      "DEFAULT_PAGE_SIZE",
	"blog.max_page_size":          "MAX_PAGE_SIZE",
}

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: defaults -> config/config.json -> environment variable overrides
	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg = c
	loaded = true
	return cfg
}

// LoadFrom reads the json file at path (a missing file is not an error), applies
// defaults and environment overrides and validates the result.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	applyDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	c := AppConfig{
		AppPort:              v.GetString("app.port"),
		RateLimitPerMinute:   v.GetInt("app.rate_limit_per_minute"),
		AllowedOrigins:       stringList(v.Get("app.allowed_origins")),
		GinMode:              v.GetString("gin.mode"),
		GinPath:              v.GetString("gin.log_path"),
		DatabaseURI:          v.GetString("database.uri"),
		DBHost:               v.GetString("database.host"),
		DBPort:               v.GetString("database.port"),
		DBUser:               v.GetString("database.user"),
		DBPassword:           v.GetString("database.password"),
		DBName:               v.GetString("database.name"),
		RedisHost:            v.GetString("redis.host"),
		RedisPort:            v.GetInt("redis.port"),
		RedisDB:              v.GetInt("redis.db"),
		RedisPassword:        v.GetString("redis.password"),
		CacheTTLSeconds:      v.GetInt("redis.cache_ttl_seconds"),
		LogLevel:             strings.ToLower(v.GetString("log.level")),
		LogPath:              v.GetString("log.path"),
		LogMaxSizeMB:         v.GetInt("log.max_size_mb"),
		LogMaxBackups:        v.GetInt("log.max_backups"),
		LogMaxAgeDays:        v.GetInt("log.max_age_days"),
		LogCompress:          v.GetBool("log.compress"),
		AuthDebug:            v.GetBool("auth.debug"),
		TokenStrategy:        strings.ToLower(v.GetString("auth.token_strategy")),
		JWTSecret:            v.GetString("auth.jwt_secret"),
		TokenTTLHours:        v.GetInt("auth.token_ttl_hours"),
		SessionLifetimeHours: v.GetInt("auth.session_lifetime_hours"),
		MaxReplyDepth:        v.GetInt("blog.max_reply_depth"),
		DefaultPageSize:      v.GetInt("blog.default_page_size"),
		MaxPageSize:          v.GetInt("blog.max_page_size"),
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}

	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// Validate rejects combinations the server cannot start with.
func (c AppConfig) Validate() error {
	switch c.TokenStrategy {
	case TokenStrategyOpaque:
	case TokenStrategyJWT:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET must be set when the jwt token strategy is enabled")
		}
	default:
		return fmt.Errorf("unknown token strategy %q", c.TokenStrategy)
	}
	if c.MaxReplyDepth < 1 {
		return fmt.Errorf("max reply depth must be positive, got %d", c.MaxReplyDepth)
	}
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// applyDefaults sets sane defaults for every key that has one.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.log_path", "logs/go_gin.log")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "aiblog")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.cache_ttl_seconds", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("auth.token_strategy", TokenStrategyOpaque)
	v.SetDefault("auth.token_ttl_hours", 72)
	v.SetDefault("auth.session_lifetime_hours", 24*14)
	v.SetDefault("blog.max_reply_depth", 32)
	v.SetDefault("blog.default_page_size", 10)
	v.SetDefault("blog.max_page_size", 100)
}

// stringList accepts either a json array or a comma separated string (as set from the environment).
func stringList(raw any) []string {
	switch t := raw.(type) {
	case string:
		return splitAndTrim(t)
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
