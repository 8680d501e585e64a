package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/api/models"
	"github.com/jroosing/subzone/internal/config"
)

// GetConfig godoc
// @Summary Get current configuration
// @Description Returns the effective configuration; API keys, tokens and chat ids are never included
// @Tags config
// @Produce json
// @Success 200 {object} models.ConfigResponse
// @Security ApiKeyAuth
// @Router /api/v1/config [get]
func (h *Handler) GetConfig(c *gin.Context) {
	cfg := h.cfg
	limits := RateLimitSettings(cfg)

	c.JSON(http.StatusOK, models.ConfigResponse{
		Server: models.ServerConfigResponse{
			Host:          cfg.Server.Host,
			Port:          cfg.Server.Port,
			SecureCookies: cfg.Server.SecureCookies,
		},
		ZonesPath: cfg.Zones.Path,
		Ledger: models.LedgerConfigResponse{
			Driver: cfg.Ledger.Driver,
			Path:   cfg.Ledger.Path,
		},
		Provider: models.ProviderConfigResponse{
			BaseURL:        cfg.Provider.BaseURL,
			TTL:            cfg.Provider.TTL,
			ExistenceCheck: cfg.Provider.ExistenceCheck,
			Timeout:        cfg.Provider.Timeout.String(),
		},
		Notify: models.NotifyConfigResponse{
			Enabled: cfg.Notify.Enabled(),
			Timeout: cfg.Notify.Timeout.String(),
		},
		Lock: models.LockConfigResponse{
			Backend: cfg.Lock.Backend(),
			TTL:     cfg.Lock.TTL.String(),
		},
		RateLimit: models.RateLimitConfigResponse{
			Enabled: limits.Enabled(),
			Summary: limits.String(),
		},
		Logging: models.LoggingConfigResponse{
			Level:      cfg.Logging.Level,
			Structured: cfg.Logging.Structured,
			Format:     cfg.Logging.StructuredFormat,
		},
	})
}

// RateLimitSettings converts the rate_limit config section into middleware
// settings.
func RateLimitSettings(cfg *config.Config) middleware.RateLimitSettings {
	rl := cfg.RateLimit
	return middleware.RateLimitSettings{
		GlobalQPS:        rl.GlobalQPS,
		GlobalBurst:      rl.GlobalBurst,
		PrefixQPS:        rl.PrefixQPS,
		PrefixBurst:      rl.PrefixBurst,
		IPQPS:            rl.IPQPS,
		IPBurst:          rl.IPBurst,
		Cleanup:          rl.Cleanup,
		MaxPrefixEntries: rl.MaxPrefixEntries,
		MaxIPEntries:     rl.MaxIPEntries,
	}
}
