package models

// ConfigResponse is the effective configuration with secrets removed.
type ConfigResponse struct {
	Server    ServerConfigResponse    `json:"server"`
	ZonesPath string                  `json:"zones_path"`
	Ledger    LedgerConfigResponse    `json:"ledger"`
	Provider  ProviderConfigResponse  `json:"provider"`
	Notify    NotifyConfigResponse    `json:"notify"`
	Lock      LockConfigResponse      `json:"lock"`
	RateLimit RateLimitConfigResponse `json:"rate_limit"`
	Logging   LoggingConfigResponse   `json:"logging"`
}

type ServerConfigResponse struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	SecureCookies bool   `json:"secure_cookies"`
}

type LedgerConfigResponse struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

type ProviderConfigResponse struct {
	BaseURL        string `json:"base_url,omitempty"`
	TTL            int    `json:"ttl"`
	ExistenceCheck string `json:"existence_check"`
	Timeout        string `json:"timeout"`
}

type NotifyConfigResponse struct {
	Enabled bool   `json:"enabled"`
	Timeout string `json:"timeout"`
}

type LockConfigResponse struct {
	Backend string `json:"backend"` // "memory" or "redis"
	TTL     string `json:"ttl"`
}

// RateLimitConfigResponse is the admission control summary, e.g.
// "global=20qps/40 prefix=5qps/20 ip=1qps/10 ...".
type RateLimitConfigResponse struct {
	Enabled bool   `json:"enabled"`
	Summary string `json:"summary"`
}

type LoggingConfigResponse struct {
	Level      string `json:"level"`
	Structured bool   `json:"structured"`
	Format     string `json:"format"`
}
