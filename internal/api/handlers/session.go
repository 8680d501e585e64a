package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/api/models"
	"github.com/jroosing/subzone/internal/auth"
	"github.com/jroosing/subzone/internal/ledger"
	"github.com/jroosing/subzone/internal/provisioning"
)

// Login godoc
// @Summary Start a session
// @Description Starts a session for an ownership token that owns at least one record. Accepts JSON or form bodies.
// @Tags session
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body models.LoginRequest true "Ownership token"
// @Success 302 "Redirect to /dashboard, or to / when the token is empty"
// @Failure 400 {object} models.ResultResponse
// @Failure 401 {object} models.ResultResponse
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logWarn("invalid login body", "err", err, "request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusBadRequest, models.ResultResponse{Message: msgInvalidBody})
		return
	}

	token := strings.TrimSpace(req.Content)
	if token == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	records, err := h.orch.Authorize(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, models.ResultResponse{Message: msgUnauthorized})
			return
		}
		h.respondResult(c, "login", err)
		return
	}

	if old, ok := middleware.SessionID(c); ok {
		h.sessions.Delete(old)
	}
	h.setSessionCookie(c, h.sessions.Create(records[0].Owner), 0)
	h.logInfo("session started", "request_id", middleware.GetRequestID(c))

	c.Redirect(http.StatusFound, "/dashboard")
}

// Dashboard godoc
// @Summary Owned records
// @Description Lists the ledger records owned by the session identity
// @Tags session
// @Produce json
// @Success 200 {object} models.DashboardResponse
// @Success 302 "Redirect to / without a session"
// @Router /dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	owner, ok := middleware.Owner(c)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}

	records, err := h.orch.Records(c.Request.Context(), owner)
	if err != nil {
		h.respondResult(c, "dashboard", err)
		return
	}

	c.JSON(http.StatusOK, models.DashboardResponse{User: owner, Records: toRecordModels(records)})
}

// UpdateRecord godoc
// @Summary Update an owned record
// @Description Edits name, type, content and proxied of a ledger record owned by the session identity. The provider record is not changed.
// @Tags session
// @Accept json
// @Produce json
// @Param request body models.UpdateRecordRequest true "New values"
// @Success 200 {object} models.ResultResponse
// @Failure 400 {object} models.ResultResponse
// @Failure 403 {object} models.ResultResponse
// @Failure 404 {object} models.ResultResponse
// @Router /update_record [post]
func (h *Handler) UpdateRecord(c *gin.Context) {
	owner, ok := middleware.Owner(c)
	if !ok {
		c.JSON(http.StatusForbidden, models.ResultResponse{Message: msgUnauthorized})
		return
	}

	var req models.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ResultResponse{Message: msgInvalidBody})
		return
	}

	err := h.orch.UpdateRecord(c.Request.Context(), owner, provisioning.UpdateRequest{
		OldName: req.OldName,
		Name:    req.Name,
		Type:    req.Type,
		Content: req.Content,
		Proxied: req.Proxied,
	})
	if err != nil {
		h.respondResult(c, "update record", err)
		return
	}

	c.JSON(http.StatusOK, models.ResultResponse{Success: true})
}

// Logout godoc
// @Summary End the session
// @Tags session
// @Success 302 "Redirect to /"
// @Router /logout [get]
func (h *Handler) Logout(c *gin.Context) {
	if id, ok := middleware.SessionID(c); ok {
		h.sessions.Delete(id)
	}
	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.cfg.Server.SecureCookies, true)
}

func toRecordModels(records []ledger.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		m := models.Record{
			Name:    r.Name,
			Type:    r.Type,
			Content: r.Content,
			Proxied: r.Proxied,
		}
		if !r.CreatedAt.IsZero() {
			ts := r.CreatedAt
			m.CreatedAt = &ts
		}
		out = append(out, m)
	}
	return out
}
