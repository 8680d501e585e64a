package config

import (
	"strings"
	"time"
)

// Existence check policies for provider lookups that cannot be answered.
const (
	// ExistenceFailClosed treats an unanswerable existence check as "present".
	ExistenceFailClosed = "fail_closed"
	// ExistenceFailOpen treats an unanswerable existence check as "absent".
	ExistenceFailOpen = "fail_open"
)

// Ledger drivers.
const (
	LedgerDriverFile   = "file"
	LedgerDriverSQLite = "sqlite"
)

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"SUBZONE_HOST"`
	Port int    `yaml:"port" env:"PORT"`
	// SecureCookies marks the session cookie Secure (set when served behind TLS).
	SecureCookies      bool          `yaml:"secure_cookies" env:"SUBZONE_SECURE_COOKIES"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout" env:"SUBZONE_SHUTDOWN_TIMEOUT"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For header is honored. Empty trusts none.
	TrustedProxies []string `yaml:"trusted_proxies" env:"SUBZONE_TRUSTED_PROXIES" envSeparator:","`
}

// APIConfig contains settings for the /api/v1 admin endpoints.
//
// Note: APIKey is a secret and is never returned by any endpoint.
type APIConfig struct {
	APIKey string `yaml:"api_key,omitempty" env:"SUBZONE_API_KEY"`
}

// ZonesConfig points at the parent-domain registry file.
type ZonesConfig struct {
	Path string `yaml:"path" env:"SUBZONE_ZONES_PATH"`
}

// LedgerConfig selects the record ledger backend.
type LedgerConfig struct {
	Driver string `yaml:"driver" env:"SUBZONE_LEDGER_DRIVER"` // "file" or "sqlite"
	Path   string `yaml:"path" env:"SUBZONE_RECORDS_PATH"`
}

// ProviderConfig contains DNS provider (Cloudflare) settings.
type ProviderConfig struct {
	// BaseURL overrides the Cloudflare API endpoint (tests, proxies).
	BaseURL string `yaml:"base_url,omitempty" env:"CLOUDFLARE_BASE_URL"`
	// APIKey and Email are used for zones that do not carry their own credentials.
	APIKey         string        `yaml:"api_key,omitempty" env:"CLOUDFLARE_API_KEY"`
	Email          string        `yaml:"email,omitempty" env:"CLOUDFLARE_EMAIL"`
	TTL            int           `yaml:"ttl" env:"SUBZONE_RECORD_TTL"`
	ExistenceCheck string        `yaml:"existence_check" env:"SUBZONE_EXISTENCE_CHECK"`
	TimeoutRaw     string        `yaml:"timeout" env:"SUBZONE_PROVIDER_TIMEOUT"`
	Timeout        time.Duration `yaml:"-"`
}

// NotifyConfig contains the Telegram notification channel settings.
// Leaving the token or chat id empty disables notifications.
type NotifyConfig struct {
	TelegramToken  string        `yaml:"telegram_token,omitempty" env:"TELEGRAM_TOKEN"`
	TelegramChatID string        `yaml:"telegram_chat_id,omitempty" env:"TELEGRAM_CHAT_ID"`
	TelegramAPIURL string        `yaml:"telegram_api_url" env:"TELEGRAM_API_URL"`
	TimeoutRaw     string        `yaml:"timeout" env:"SUBZONE_NOTIFY_TIMEOUT"`
	Timeout        time.Duration `yaml:"-"`
}

// Enabled reports whether a notification destination is configured.
func (n NotifyConfig) Enabled() bool {
	return n.TelegramToken != "" && n.TelegramChatID != ""
}

// LockConfig selects where per-name creation locks live.
// An empty RedisAddr keeps locks in process memory.
type LockConfig struct {
	RedisAddr string        `yaml:"redis_addr,omitempty" env:"SUBZONE_REDIS_ADDR"`
	RedisDB   int           `yaml:"redis_db" env:"SUBZONE_REDIS_DB"`
	TTLRaw    string        `yaml:"ttl" env:"SUBZONE_LOCK_TTL"`
	TTL       time.Duration `yaml:"-"`
}

// Lock backend names reported by LockConfig.Backend.
const (
	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"
)

// Backend names the lock implementation the configuration selects.
func (c LockConfig) Backend() string {
	if strings.TrimSpace(c.RedisAddr) != "" {
		return LockBackendRedis
	}
	return LockBackendMemory
}

// RateLimitConfig bounds how fast clients may call the provisioning
// endpoints. A level with zero qps or burst is disabled.
type RateLimitConfig struct {
	GlobalQPS        float64       `yaml:"global_qps" env:"SUBZONE_RATE_GLOBAL_QPS"`
	GlobalBurst      int           `yaml:"global_burst" env:"SUBZONE_RATE_GLOBAL_BURST"`
	PrefixQPS        float64       `yaml:"prefix_qps" env:"SUBZONE_RATE_PREFIX_QPS"`
	PrefixBurst      int           `yaml:"prefix_burst" env:"SUBZONE_RATE_PREFIX_BURST"`
	IPQPS            float64       `yaml:"ip_qps" env:"SUBZONE_RATE_IP_QPS"`
	IPBurst          int           `yaml:"ip_burst" env:"SUBZONE_RATE_IP_BURST"`
	CleanupRaw       string        `yaml:"cleanup" env:"SUBZONE_RATE_CLEANUP"`
	Cleanup          time.Duration `yaml:"-"`
	MaxPrefixEntries int           `yaml:"max_prefix_entries"`
	MaxIPEntries     int           `yaml:"max_ip_entries"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level" env:"SUBZONE_LOG_LEVEL"`
	Structured       bool              `yaml:"structured" env:"SUBZONE_LOG_STRUCTURED"`
	StructuredFormat string            `yaml:"structured_format" env:"SUBZONE_LOG_FORMAT"`
	IncludePID       bool              `yaml:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields,omitempty"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Zones     ZonesConfig     `yaml:"zones"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Provider  ProviderConfig  `yaml:"provider"`
	Notify    NotifyConfig    `yaml:"notify"`
	Lock      LockConfig      `yaml:"lock"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               5000,
			ShutdownTimeoutRaw: "10s",
		},
		Zones:  ZonesConfig{Path: "zones.json"},
		Ledger: LedgerConfig{Driver: LedgerDriverFile, Path: "records.json"},
		Provider: ProviderConfig{
			TTL:            1,
			ExistenceCheck: ExistenceFailClosed,
			TimeoutRaw:     "5s",
		},
		Notify: NotifyConfig{
			TelegramAPIURL: "https://api.telegram.org",
			TimeoutRaw:     "5s",
		},
		Lock: LockConfig{TTLRaw: "30s"},
		RateLimit: RateLimitConfig{
			GlobalQPS:        20,
			GlobalBurst:      40,
			PrefixQPS:        5,
			PrefixBurst:      20,
			IPQPS:            1,
			IPBurst:          10,
			CleanupRaw:       "5m",
			MaxPrefixEntries: 10000,
			MaxIPEntries:     10000,
		},
		Logging: LoggingConfig{Level: "INFO", StructuredFormat: "json"},
	}
}
