package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/api/models"
	"github.com/jroosing/subzone/internal/provisioning"
)

// Index godoc
// @Summary List parent domains
// @Description Returns the parent domains subdomains can be created under
// @Tags provisioning
// @Produce json
// @Success 200 {object} models.DomainsResponse
// @Router / [get]
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, models.DomainsResponse{Domains: h.orch.Domains()})
}

// CheckSubdomain godoc
// @Summary Check subdomain availability
// @Description Reports whether a record with the composed name already exists at the provider
// @Tags provisioning
// @Accept json
// @Produce json
// @Param request body models.CheckSubdomainRequest true "Name to check"
// @Success 200 {object} models.CheckSubdomainResponse
// @Failure 400 {object} models.CheckSubdomainResponse
// @Failure 429 {object} models.ResultResponse
// @Failure 502 {object} models.CheckSubdomainResponse
// @Router /check_subdomain [post]
func (h *Handler) CheckSubdomain(c *gin.Context) {
	var req models.CheckSubdomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.CheckSubdomainResponse{Message: msgInvalidBody})
		return
	}

	available, err := h.orch.CheckAvailability(c.Request.Context(), req.Domain, req.Subdomain)
	if err != nil {
		status, msg := classify(err)
		if status != http.StatusBadRequest {
			h.logWarn("availability check failed", "domain", req.Domain, "subdomain", req.Subdomain, "err", err)
		}
		c.JSON(status, models.CheckSubdomainResponse{Exists: false, Message: msg})
		return
	}

	c.JSON(http.StatusOK, models.CheckSubdomainResponse{Exists: !available})
}

// CreateSubdomain godoc
// @Summary Create a subdomain
// @Description Creates the record at the DNS provider, records it in the ledger and notifies the operator
// @Tags provisioning
// @Accept json
// @Produce json
// @Param request body models.CreateSubdomainRequest true "Record to create"
// @Success 200 {object} models.ResultResponse
// @Failure 400 {object} models.ResultResponse
// @Failure 429 {object} models.ResultResponse
// @Failure 500 {object} models.ResultResponse "created is true when the provider record exists but was not recorded"
// @Router /create_subdomain [post]
func (h *Handler) CreateSubdomain(c *gin.Context) {
	var req models.CreateSubdomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ResultResponse{Message: msgInvalidBody})
		return
	}
	if req.Proxied == nil {
		c.JSON(http.StatusBadRequest, models.ResultResponse{Message: msgProxied})
		return
	}

	res, err := h.orch.CreateSubdomain(c.Request.Context(), provisioning.CreateRequest{
		Subdomain: req.Subdomain,
		Domain:    req.Domain,
		Type:      req.Type,
		Content:   req.Content,
		Proxied:   *req.Proxied,
	})

	var persistErr *provisioning.PersistenceError
	switch {
	case errors.As(err, &persistErr):
		h.logError("record created but not persisted", err, "name", persistErr.Name, "request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusInternalServerError, models.ResultResponse{
			Success: false,
			Created: true,
			Message: persistErr.Name + msgNotRecorded,
		})
	case err != nil:
		h.respondResult(c, "create subdomain", err)
	default:
		c.JSON(http.StatusOK, models.ResultResponse{
			Success: true,
			Message: res.Record.Name + " created",
		})
	}
}
