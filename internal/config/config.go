// Package config loads server settings from an optional .env file, an optional
// YAML file and the environment, in increasing order of precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvProduction is the SEACOMMS_ENV value that turns on production checks.
const EnvProduction = "production"

// Defaults
const (
	DefaultAddr        = ":8080"
	DefaultDBPath      = "seacomms.db"
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRateLimit   = 10.0
	DefaultSlowQuery   = 50 * time.Millisecond
	DefaultSlowRequest = 200 * time.Millisecond
	DefaultMailFrom    = "SeaComms <noreply@seacomms.local>"
	minJWTSecretLength = 32
	csrfKeyLength      = 32
)

var (
	ErrMissingJWTSecret = errors.New("SEACOMMS_JWT_SECRET is required in production")
	ErrShortJWTSecret   = errors.New("SEACOMMS_JWT_SECRET must be at least 32 characters")
	ErrMissingCSRFKey   = errors.New("SEACOMMS_CSRF_KEY is required in production")
	ErrBadCSRFKey       = errors.New("SEACOMMS_CSRF_KEY must be 64 hex characters (32 bytes)")
)

// Config holds every server setting.
type Config struct {
	Env            string
	Addr           string
	BaseURL        string
	DBPath         string
	AdminEmails    []string
	JWTSecret      []byte
	CSRFKey        []byte
	SessionTTL     time.Duration
	TrustedOrigins []string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ResendKey      string
	MailFrom       string
	CatalogFile    string
	LogLevel       slog.Level
	RateLimit      float64
	SlowQuery      time.Duration
	SlowRequest    time.Duration

	// GeneratedSecrets lists secrets that were randomised for this process
	// because they were not configured (development only).
	GeneratedSecrets []string
}

// IsProduction reports whether production checks apply.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// fileConfig is the YAML file layout. Secrets come from the environment only.
type fileConfig struct {
	Addr           string   `yaml:"addr"`
	BaseURL        string   `yaml:"base_url"`
	DBPath         string   `yaml:"db_path"`
	AdminEmails    []string `yaml:"admin_emails"`
	TrustedOrigins []string `yaml:"trusted_origins"`
	MailFrom       string   `yaml:"mail_from"`
	CatalogFile    string   `yaml:"catalog_file"`
	LogLevel       string   `yaml:"log_level"`
	SessionTTL     string   `yaml:"session_ttl"`
}

// Lookup matches os.LookupEnv.
type Lookup func(key string) (string, bool)

// Load reads .env (if present) into the process environment without
// overriding variables already set, then builds the Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from env, reading SEACOMMS_CONFIG_FILE first when set.
// PRE: none
// POST: in production JWTSecret and CSRFKey are configured; otherwise missing
// secrets are generated and named in GeneratedSecrets
func FromLookup(env Lookup) (Config, error) {
	get := func(key string) string {
		v, _ := env(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		Env:         get("SEACOMMS_ENV"),
		Addr:        DefaultAddr,
		DBPath:      DefaultDBPath,
		SessionTTL:  DefaultSessionTTL,
		MailFrom:    DefaultMailFrom,
		LogLevel:    slog.LevelInfo,
		RateLimit:   DefaultRateLimit,
		SlowQuery:   DefaultSlowQuery,
		SlowRequest: DefaultSlowRequest,
	}

	if path := get("SEACOMMS_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	var err error
	setString(&cfg.Addr, get("SEACOMMS_ADDR"))
	setString(&cfg.BaseURL, get("SEACOMMS_BASE_URL"))
	setString(&cfg.DBPath, get("SEACOMMS_DB_PATH"))
	setString(&cfg.RedisAddr, get("SEACOMMS_REDIS_ADDR"))
	setString(&cfg.RedisPassword, get("SEACOMMS_REDIS_PASSWORD"))
	setString(&cfg.ResendKey, get("SEACOMMS_RESEND_KEY"))
	setString(&cfg.MailFrom, get("SEACOMMS_MAIL_FROM"))
	setString(&cfg.CatalogFile, get("SEACOMMS_CATALOG_FILE"))
	if v := get("SEACOMMS_ADMIN_EMAILS"); v != "" {
		cfg.AdminEmails = splitList(v)
	}
	if v := get("SEACOMMS_TRUSTED_ORIGINS"); v != "" {
		cfg.TrustedOrigins = splitList(v)
	}
	if v := get("SEACOMMS_LOG_LEVEL"); v != "" {
		if cfg.LogLevel, err = parseLevel(v); err != nil {
			return Config{}, err
		}
	}
	if v := get("SEACOMMS_SESSION_TTL"); v != "" {
		if cfg.SessionTTL, err = parsePositiveDuration("SEACOMMS_SESSION_TTL", v); err != nil {
			return Config{}, err
		}
	}
	if v := get("SEACOMMS_REDIS_DB"); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil || cfg.RedisDB < 0 {
			return Config{}, fmt.Errorf("SEACOMMS_REDIS_DB: %q is not a database number", v)
		}
	}
	if v := get("SEACOMMS_RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(v, 64); err != nil || cfg.RateLimit <= 0 {
			return Config{}, fmt.Errorf("SEACOMMS_RATE_LIMIT: %q must be a positive number", v)
		}
	}
	if v := get("SEACOMMS_SLOW_QUERY_MS"); v != "" {
		if cfg.SlowQuery, err = parseMillis("SEACOMMS_SLOW_QUERY_MS", v); err != nil {
			return Config{}, err
		}
	}
	if v := get("SEACOMMS_SLOW_REQUEST_MS"); v != "" {
		if cfg.SlowRequest, err = parseMillis("SEACOMMS_SLOW_REQUEST_MS", v); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.loadSecrets(get("SEACOMMS_JWT_SECRET"), get("SEACOMMS_CSRF_KEY")); err != nil {
		return Config{}, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.Addr
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	setString(&c.Addr, f.Addr)
	setString(&c.BaseURL, f.BaseURL)
	setString(&c.DBPath, f.DBPath)
	setString(&c.MailFrom, f.MailFrom)
	setString(&c.CatalogFile, f.CatalogFile)
	if len(f.AdminEmails) > 0 {
		c.AdminEmails = f.AdminEmails
	}
	if len(f.TrustedOrigins) > 0 {
		c.TrustedOrigins = f.TrustedOrigins
	}
	if f.LogLevel != "" {
		if c.LogLevel, err = parseLevel(f.LogLevel); err != nil {
			return err
		}
	}
	if f.SessionTTL != "" {
		if c.SessionTTL, err = parsePositiveDuration("session_ttl", f.SessionTTL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) loadSecrets(jwtSecret, csrfHex string) error {
	switch {
	case jwtSecret != "":
		if len(jwtSecret) < minJWTSecretLength {
			return ErrShortJWTSecret
		}
		c.JWTSecret = []byte(jwtSecret)
	case c.IsProduction():
		return ErrMissingJWTSecret
	default:
		c.JWTSecret = randomBytes(minJWTSecretLength)
		c.GeneratedSecrets = append(c.GeneratedSecrets, "SEACOMMS_JWT_SECRET")
	}

	switch {
	case csrfHex != "":
		key, err := hex.DecodeString(csrfHex)
		if err != nil || len(key) != csrfKeyLength {
			return ErrBadCSRFKey
		}
		c.CSRFKey = key
	case c.IsProduction():
		return ErrMissingCSRFKey
	default:
		c.CSRFKey = randomBytes(csrfKeyLength)
		c.GeneratedSecrets = append(c.GeneratedSecrets, "SEACOMMS_CSRF_KEY")
	}
	return nil
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms.
	rand.Read(b)
	return b
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(v string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("log level %q: want debug, info, warn or error", v)
	}
	return l, nil
}

func parsePositiveDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: %q must be a positive duration such as 24h", key, v)
	}
	return d, nil
}

func parseMillis(key, v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: %q must be a positive number of milliseconds", key, v)
	}
	return time.Duration(n) * time.Millisecond, nil
}
