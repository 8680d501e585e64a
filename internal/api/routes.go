package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jroosing/subzone/internal/api/handlers"
	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/config"

	_ "github.com/jroosing/subzone/internal/api/docs" // swagger docs
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/", h.Index)

	var limiter *middleware.RateLimiter
	if cfg != nil {
		if s := handlers.RateLimitSettings(cfg); s.Enabled() {
			limiter = middleware.NewRateLimiter(s)
		}
	}
	provisioning := r.Group("/", middleware.RateLimit(limiter))
	provisioning.POST("/check_subdomain", h.CheckSubdomain)
	provisioning.POST("/create_subdomain", h.CreateSubdomain)

	r.POST("/login", h.Login)
	r.GET("/dashboard", h.Dashboard)
	r.POST("/update_record", h.UpdateRecord)
	r.GET("/logout", h.Logout)

	api := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/config", h.GetConfig)
	api.GET("/zones", h.ListZones)
}
