// Package config provides configuration loading and validation for subzone.
//
// Values are layered in this order, later layers winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file (path from -config or SUBZONE_CONFIG)
//  3. a .env file in the working directory, if present
//  4. process environment variables
//
// Command line flags are applied on top by cmd/subzone.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

// EnvConfigPath is the environment variable consulted when no -config flag is given.
const EnvConfigPath = "SUBZONE_CONFIG"

// DotEnvFile is the dotenv file loaded from the working directory.
const DotEnvFile = ".env"

// ResolveConfigPath returns the config file path from the flag, falling back
// to SUBZONE_CONFIG. An empty result means "defaults and environment only".
func ResolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// Load builds the configuration from defaults, the optional YAML file at path,
// the dotenv file and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be 1..65535")
	}

	var err error
	if cfg.Server.ShutdownTimeout, err = parseDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeoutRaw, 10*time.Second); err != nil {
		return err
	}

	proxies := cfg.Server.TrustedProxies[:0]
	for _, p := range cfg.Server.TrustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, perr := netip.ParsePrefix(p); perr != nil {
			if _, perr := netip.ParseAddr(p); perr != nil {
				return fmt.Errorf("server.trusted_proxies: invalid address or CIDR %q", p)
			}
		}
		proxies = append(proxies, p)
	}
	cfg.Server.TrustedProxies = proxies

	if strings.TrimSpace(cfg.Zones.Path) == "" {
		return errors.New("zones.path is required")
	}

	cfg.Ledger.Driver = strings.ToLower(strings.TrimSpace(cfg.Ledger.Driver))
	switch cfg.Ledger.Driver {
	case "":
		cfg.Ledger.Driver = LedgerDriverFile
	case LedgerDriverFile, LedgerDriverSQLite:
	default:
		return fmt.Errorf("ledger.driver must be %q or %q, got %q", LedgerDriverFile, LedgerDriverSQLite, cfg.Ledger.Driver)
	}
	if strings.TrimSpace(cfg.Ledger.Path) == "" {
		return errors.New("ledger.path is required")
	}

	// Cloudflare treats ttl=1 as "automatic".
	if cfg.Provider.TTL <= 0 {
		cfg.Provider.TTL = 1
	}
	cfg.Provider.ExistenceCheck = strings.ToLower(strings.TrimSpace(cfg.Provider.ExistenceCheck))
	switch cfg.Provider.ExistenceCheck {
	case "":
		cfg.Provider.ExistenceCheck = ExistenceFailClosed
	case ExistenceFailClosed, ExistenceFailOpen:
	default:
		return fmt.Errorf("provider.existence_check must be %q or %q", ExistenceFailClosed, ExistenceFailOpen)
	}
	if cfg.Provider.Timeout, err = parseDuration("provider.timeout", cfg.Provider.TimeoutRaw, 5*time.Second); err != nil {
		return err
	}

	if cfg.Notify.TelegramAPIURL == "" {
		cfg.Notify.TelegramAPIURL = "https://api.telegram.org"
	}
	cfg.Notify.TelegramAPIURL = strings.TrimRight(cfg.Notify.TelegramAPIURL, "/")
	if cfg.Notify.Timeout, err = parseDuration("notify.timeout", cfg.Notify.TimeoutRaw, 5*time.Second); err != nil {
		return err
	}

	if cfg.Lock.TTL, err = parseDuration("lock.ttl", cfg.Lock.TTLRaw, 30*time.Second); err != nil {
		return err
	}

	rl := &cfg.RateLimit
	if rl.GlobalQPS < 0 || rl.PrefixQPS < 0 || rl.IPQPS < 0 {
		return errors.New("rate_limit qps values must not be negative")
	}
	if rl.GlobalBurst < 0 || rl.PrefixBurst < 0 || rl.IPBurst < 0 {
		return errors.New("rate_limit burst values must not be negative")
	}
	if rl.Cleanup, err = parseDuration("rate_limit.cleanup", rl.CleanupRaw, 5*time.Minute); err != nil {
		return err
	}
	if rl.MaxPrefixEntries <= 0 {
		rl.MaxPrefixEntries = 10000
	}
	if rl.MaxIPEntries <= 0 {
		rl.MaxIPEntries = 10000
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	return nil
}

// parseDuration parses raw, falling back to def when raw is blank.
func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
