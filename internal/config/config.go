package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config collects every environment-driven option the server recognizes.
type Config struct {
	// Storage
	DatabaseURL    string
	PoolMaxConns   int32
	ConnectTimeout time.Duration

	// Identity
	PlatformIssuer   string
	JWKSURL          string
	PlatformAudience string
	APITokenSecret   string
	ClockSkew        time.Duration

	// HTTP surface
	HTTPAddr       string
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	// Caches
	ContextCacheTTL time.Duration
	ContextCacheMax int
	FacadeCacheTTL  time.Duration

	// Limits
	MaxDependencyEdges int
	RateLimitPerMinute int
	RateLimitBurst     int

	// Feature toggles: tool names listed here are not registered.
	DisabledTools map[string]bool

	DevMode bool
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads configuration from the environment.
func Load() *Config {
	disabled := map[string]bool{}
	for _, name := range strings.Split(env("TOOLS_DISABLED", ""), ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			disabled[name] = true
		}
	}

	return &Config{
		DatabaseURL:    env("DATABASE_URL", ""),
		PoolMaxConns:   int32(envInt("DB_POOL_MAX_CONNS", 20)),
		ConnectTimeout: envDuration("DB_CONNECT_TIMEOUT", 10*time.Second),

		PlatformIssuer:   env("JWT_ISSUER", ""),
		JWKSURL:          env("JWT_JWKS_URL", ""),
		PlatformAudience: env("JWT_AUDIENCE", ""),
		APITokenSecret:   env("API_TOKEN_SECRET", ""),
		ClockSkew:        envDuration("CLOCK_SKEW_TOLERANCE", 30*time.Second),

		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxBodyBytes:   int64(envInt("MAX_BODY_BYTES", 1<<20)),

		ContextCacheTTL: envDuration("CONTEXT_CACHE_TTL", 5*time.Minute),
		ContextCacheMax: envInt("CONTEXT_CACHE_MAX", 10000),
		FacadeCacheTTL:  envDuration("FACADE_CACHE_TTL", 30*time.Minute),

		MaxDependencyEdges: envInt("MAX_DEPENDENCY_EDGES", 10000),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 600),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 120),

		DisabledTools: disabled,
		DevMode:       env("ENV", "") == "dev",
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	// JWKS and issuer must travel together: JWKS alone would accept tokens
	// from any issuer using those keys, issuer alone has nothing to verify
	// signatures against.
	if (c.JWKSURL != "" && c.PlatformIssuer == "") || (c.JWKSURL == "" && c.PlatformIssuer != "") {
		return errors.New("JWT_ISSUER and JWT_JWKS_URL must both be set or both be empty")
	}
	if c.APITokenSecret == "" && c.JWKSURL == "" {
		return errors.New("at least one of API_TOKEN_SECRET or JWT_JWKS_URL must be configured")
	}
	if !c.DevMode && c.APITokenSecret == "dev-secret-change-in-production" {
		return errors.New("cannot start in production mode with the default API_TOKEN_SECRET")
	}
	return nil
}
