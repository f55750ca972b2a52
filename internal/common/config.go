// Package common provides shared logging, configuration, and versioning
// utilities used by every component.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment-sourced configuration shared by every
// component. Load fills every field, applying defaults where a variable
// is unset; each cmd/ entry point then reads only the fields relevant to
// it.
type Config struct {
	LogLevel string
	HTTPPort int

	Redis RedisConfig
	DSN   string // DATABASE_URL

	Blob BlobConfig

	Scheduler SchedulerConfig
	Reconciler ReconcilerConfig
}

// RedisConfig holds connection settings for the shared Redis instance.
type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	NamespacePrefix string
}

// Addr returns the host:port dial address.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BlobConfig holds blob-store backend settings.
type BlobConfig struct {
	Backend   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	BasePath  string
}

// SchedulerConfig holds worker-runtime settings.
type SchedulerConfig struct {
	WorkerTypes       []string
	WorkerConcurrency int
	LeaseSeconds      int
}

// ReconcilerConfig holds DNS reconciler settings.
type ReconcilerConfig struct {
	CloudflareAPIToken string
	DomainBase         string
	TraefikConfigPath  string
	FingerprintPath    string
	HealthPath         string
	TickInterval       time.Duration
	IPEchoServices     []string
}

// Enabled reports whether the reconciler has the credentials it needs to
// do anything; running it is optional, unlike the scheduler or limiter.
func (r ReconcilerConfig) Enabled() bool {
	return r.CloudflareAPIToken != "" && r.DomainBase != ""
}

// Load reads every recognized environment variable into a Config. It
// does not validate component-specific required fields — callers use
// RequireDatabase / RequireScheduler / RequireRateLimiter, or check
// ReconcilerConfig.Enabled, as appropriate for the component they run.
func Load() *Config {
	c := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		DSN:      os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnvInt("REDIS_PORT", 6379),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              getEnvInt("REDIS_DB", 0),
			NamespacePrefix: os.Getenv("REDIS_NAMESPACE_PREFIX"),
		},
		Blob: BlobConfig{
			Backend:   getEnv("BLOB_BACKEND", "file"),
			Endpoint:  os.Getenv("BLOB_ENDPOINT"),
			AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
			SecretKey: os.Getenv("BLOB_SECRET_KEY"),
			Bucket:    os.Getenv("BLOB_BUCKET"),
			UseSSL:    getEnvBool("BLOB_USE_SSL", false),
			BasePath:  getEnv("BLOB_BASE_PATH", "data/blob"),
		},
		Scheduler: SchedulerConfig{
			WorkerTypes:       splitCSV(os.Getenv("WORKER_TYPES")),
			WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 5),
			LeaseSeconds:      getEnvInt("WORKER_LEASE_SECONDS", 1800),
		},
		Reconciler: ReconcilerConfig{
			CloudflareAPIToken: os.Getenv("CLOUDFLARE_API_TOKEN"),
			DomainBase:         os.Getenv("DOMAIN_BASE"),
			TraefikConfigPath:  getEnv("TRAEFIK_CONFIG_PATH", "/etc/traefik/config.yml"),
			FingerprintPath:    os.Getenv("RECONCILER_FINGERPRINT_PATH"),
			HealthPath:         os.Getenv("RECONCILER_HEALTH_PATH"),
			TickInterval:       getEnvDuration("RECONCILER_TICK_INTERVAL", 30*time.Second),
			IPEchoServices: splitCSVDefault(os.Getenv("IP_ECHO_SERVICES"), []string{
				"https://api.ipify.org",
				"https://ifconfig.me/ip",
				"https://ipinfo.io/ip",
			}),
		},
	}
	return c
}

// RedisNamespace returns prefix if set, otherwise def.
func (c *Config) RedisNamespace(def string) string {
	if c.Redis.NamespacePrefix != "" {
		return c.Redis.NamespacePrefix
	}
	return def
}

// RequireDatabase returns a fatal boot error if DATABASE_URL is unset.
func (c *Config) RequireDatabase() error {
	if c.DSN == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	return nil
}

// RequireScheduler returns a fatal boot error if the job scheduler is
// missing configuration it cannot run without: a database connection
// and at least one worker type to claim jobs for.
func (c *Config) RequireScheduler() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if len(c.Scheduler.WorkerTypes) == 0 {
		return fmt.Errorf("config: WORKER_TYPES must name at least one job type")
	}
	return nil
}

// RequireRateLimiter returns a fatal boot error if the rate limiter
// service is misconfigured in a way that would make it bind and then
// serve nonsense — currently just an out-of-range HTTP port, since
// every Redis field already falls back to a usable default.
func (c *Config) RequireRateLimiter() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: HTTP_PORT %d is out of range", c.HTTPPort)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(v string) []string {
	return splitCSVDefault(v, nil)
}

func splitCSVDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
