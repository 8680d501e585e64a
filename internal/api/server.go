// Package api provides the HTTP server for subzone.
// It exposes the provisioning and session endpoints, the /api/v1 admin
// endpoints and a small embedded UI via a Gin-based HTTP server.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/subzone/internal/api/handlers"
	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/config"
)

// Server is the subzone HTTP server.
//
// Security note: sessions are bound to an ownership token that is not a
// secret. Serve behind TLS and set server.secure_cookies when exposed.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	handler    *handlers.Handler
	httpServer *http.Server
}

// New builds the server. It panics when cfg is nil or lists an invalid
// trusted proxy.
func New(cfg *config.Config, deps handlers.Deps, logger *slog.Logger) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(cfg, deps, logger)

	engine := gin.New()
	// ClientIP only honors X-Forwarded-For from the configured proxies.
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		panic("api.New: invalid trusted proxies: " + err.Error())
	}
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SlogRequestLogger(logger))
	engine.Use(middleware.LoadSession(h.Sessions()))

	RegisterRoutes(engine, h, cfg)
	MountUI(engine, logger)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, handler: h, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the handler set mounted on the engine.
func (s *Server) Handler() *handlers.Handler {
	return s.handler
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
