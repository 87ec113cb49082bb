// Package config handles application configuration.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// CORS
	CORSOrigins []string

	// Credentials at rest
	EncryptionKey []byte // 32-byte key for AES-256-GCM

	// Proxy source (upstream residential proxy provider)
	ProxySourceURL  string
	ProxyFetchLimit int
	// UseMockSource selects synthetic proxies at startup instead of calling
	// the upstream API. This is an explicit switch, never a runtime fallback,
	// so a failing upstream stays visible.
	UseMockSource bool

	// Profile provisioning API
	GoLoginAPIURL string
	GoLoginToken  string

	// Browser sessions
	ChromePath      string
	BrowserHeadless bool
	LandingURL      string
	OpenTimeout     time.Duration // per-account budget for launch + navigation

	// Default capacity policy applied when a mapping request omits limits
	DefaultMaxProxies          int
	DefaultMaxAccountsPerProxy int

	// Proxy health checker
	CheckerEnabled     bool
	CheckerInterval    time.Duration
	CheckerTimeout     time.Duration
	CheckerConcurrency int
	CheckerMaxFailures int // deactivate a proxy after this many consecutive failures
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "warmloop.db"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		ProxySourceURL:  getEnv("PROXY_SOURCE_URL", "https://info.proxy.abcproxy.com"),
		ProxyFetchLimit: getEnvInt("PROXY_FETCH_LIMIT", 100),
		UseMockSource:   getEnvBool("PROXY_SOURCE_MOCK", false),

		GoLoginAPIURL: getEnv("GOLOGIN_API_URL", "https://api.gologin.com"),
		GoLoginToken:  getEnv("GOLOGIN_API_TOKEN", ""),

		ChromePath:      getEnv("CHROME_PATH", ""),
		BrowserHeadless: getEnvBool("BROWSER_HEADLESS", false),
		LandingURL:      getEnv("LANDING_URL", "https://accounts.google.com/signin"),
		OpenTimeout:     getEnvDuration("OPEN_TIMEOUT", 60*time.Second),

		DefaultMaxProxies:          getEnvInt("DEFAULT_MAX_PROXIES", 10),
		DefaultMaxAccountsPerProxy: getEnvInt("DEFAULT_MAX_ACCOUNTS_PER_PROXY", 3),

		CheckerEnabled:     getEnvBool("PROXYCHECK_ENABLED", true),
		CheckerInterval:    getEnvDuration("PROXYCHECK_INTERVAL", 10*time.Minute),
		CheckerTimeout:     getEnvDuration("PROXYCHECK_TIMEOUT", 10*time.Second),
		CheckerConcurrency: getEnvInt("PROXYCHECK_CONCURRENCY", 5),
		CheckerMaxFailures: getEnvInt("PROXYCHECK_MAX_FAILURES", 3),
	}

	if cfg.DefaultMaxProxies < 1 || cfg.DefaultMaxAccountsPerProxy < 1 {
		return nil, fmt.Errorf("capacity policy defaults must be >= 1")
	}

	// Set up the encryption key. Accept an explicit base64 32-byte key,
	// otherwise derive one from WARMLOOP_SECRET (generated when unset, which
	// makes stored credentials unreadable across restarts - fine for dev).
	if encKeyStr := getEnv("ENCRYPTION_KEY", ""); encKeyStr != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	} else {
		secret := getEnv("WARMLOOP_SECRET", "")
		if secret == "" {
			secret = generateRandomSecret(64)
		}
		cfg.EncryptionKey = deriveEncryptionKey(secret)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback (should never happen)
		return "warmloop-secret-change-me-" + base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string
// using HKDF with SHA-256.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("warmloop-encryption-key-v1")
	info := []byte("aes-256-gcm-encryption")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
