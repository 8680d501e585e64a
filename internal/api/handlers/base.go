// Package handlers implements the HTTP endpoint handlers for subzone.
//
// Provisioning endpoints:
//   - GET  /                  - Registered parent domains
//   - POST /check_subdomain   - Is subdomain.domain free at the provider
//   - POST /create_subdomain  - Create a record at the provider and in the ledger
//   - POST /login             - Start a session for an ownership token
//   - GET  /dashboard         - Records owned by the session identity
//   - POST /update_record     - Edit an owned ledger record
//   - GET  /logout            - End the session
//
// Admin endpoints (optional X-API-Key):
//   - GET /api/v1/health - Health check status
//   - GET /api/v1/stats  - Process and ledger statistics
//   - GET /api/v1/config - Current configuration (secrets omitted)
//   - GET /api/v1/zones  - Registered zones (credentials omitted)
//
// @title subzone API
// @version 1.0
// @description Provisions DNS subdomains under registered parent domains.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:5000
// @BasePath /
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"time"

	"github.com/jroosing/subzone/internal/auth"
	"github.com/jroosing/subzone/internal/config"
	"github.com/jroosing/subzone/internal/ledger"
	"github.com/jroosing/subzone/internal/provisioning"
	"github.com/jroosing/subzone/internal/zones"
)

// Deps are the runtime components the handlers serve.
type Deps struct {
	Orchestrator *provisioning.Orchestrator
	Zones        *zones.Registry
	Store        ledger.Store
	Sessions     *auth.Sessions
}

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	orch      *provisioning.Orchestrator
	zones     *zones.Registry
	store     ledger.Store
	sessions  *auth.Sessions
	logger    *slog.Logger
	startTime time.Time
}

// New creates a new Handler.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = auth.NewSessions()
	}
	return &Handler{
		cfg:       cfg,
		orch:      deps.Orchestrator,
		zones:     deps.Zones,
		store:     deps.Store,
		sessions:  deps.Sessions,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Sessions returns the session store used by the handlers.
func (h *Handler) Sessions() *auth.Sessions {
	return h.sessions
}

func (h *Handler) logInfo(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

func (h *Handler) logWarn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

func (h *Handler) logError(msg string, err error, args ...any) {
	if h.logger != nil {
		h.logger.Error(msg, append([]any{"err", err}, args...)...)
	}
}
