package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.AppPort != "8080" || c.TokenStrategy != TokenStrategyOpaque || c.MaxReplyDepth != 32 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !reflect.DeepEqual(c.AllowedOrigins, []string{"*"}) {
		t.Fatalf("AllowedOrigins = %v", c.AllowedOrigins)
	}
}

func TestLoadFromFileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `{
		"app": {"port": "9000", "allowed_origins": ["https://a.example", " https://b.example "]},
		"database": {"uri": "user:pw@tcp(db:3306)/blog"},
		"log": {"level": "DEBUG"},
		"blog": {"max_reply_depth": 5}
	}`)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("MAX_REPLY_DEPTH", "8")

	c, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.AppPort != "9100" {
		t.Errorf("AppPort = %q, want env override", c.AppPort)
	}
	if c.MaxReplyDepth != 8 {
		t.Errorf("MaxReplyDepth = %d", c.MaxReplyDepth)
	}
	if c.DatabaseURI != "user:pw@tcp(db:3306)/blog" {
		t.Errorf("DatabaseURI = %q", c.DatabaseURI)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", c.LogLevel)
	}
	if !reflect.DeepEqual(c.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("AllowedOrigins = %v", c.AllowedOrigins)
	}
}

func TestCommaSeparatedOriginsFromEnvironment(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	c, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !reflect.DeepEqual(c.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("AllowedOrigins = %v", c.AllowedOrigins)
	}
}

func TestJWTStrategyRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_TOKEN_STRATEGY", "jwt")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	c, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.TokenStrategy != TokenStrategyJWT || c.JWTSecret != "s3cret" {
		t.Fatalf("unexpected auth config: %+v", c)
	}
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown strategy": `{"auth": {"token_strategy": "ldap"}}`,
		"zero depth":       `{"blog": {"max_reply_depth": 0}}`,
		"page sizes":       `{"blog": {"default_page_size": 50, "max_page_size": 20}}`,
		"broken json":      `{"app": `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFrom(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
