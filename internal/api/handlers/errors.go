package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/subzone/internal/api/middleware"
	"github.com/jroosing/subzone/internal/api/models"
	"github.com/jroosing/subzone/internal/auth"
	"github.com/jroosing/subzone/internal/provider"
	"github.com/jroosing/subzone/internal/provisioning"
)

// Messages shown to clients for the fixed error kinds.
const (
	msgDomainNotFound = "Domain not found"
	msgRecordNotFound = "Record not found"
	msgUnauthorized   = "Unauthorized"
	msgInvalidBody    = "invalid request body"
	msgProviderDown   = "DNS provider unavailable, try again later"
	msgInternal       = "internal error"
	msgNotRecorded    = " was created at the provider but could not be recorded"
	msgProxied        = "proxied is required"
)

// classify maps an operation error to its HTTP status and client message.
func classify(err error) (int, string) {
	var (
		validation  *provisioning.ValidationError
		conflict    *provisioning.ConflictError
		providerErr *provisioning.ProviderError
		persistErr  *provisioning.PersistenceError
	)

	switch {
	case errors.Is(err, provisioning.ErrDomainNotFound):
		return http.StatusBadRequest, msgDomainNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &conflict):
		return http.StatusBadRequest, conflict.Error()
	case errors.As(err, &providerErr):
		return http.StatusBadRequest, providerErr.Message
	case errors.Is(err, provisioning.ErrNotFound):
		return http.StatusNotFound, msgRecordNotFound
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, provider.ErrExistenceUnknown):
		return http.StatusBadGateway, msgProviderDown
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, persistErr.Name + msgNotRecorded
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// respondResult writes err as a ResultResponse.
func (h *Handler) respondResult(c *gin.Context, op string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logError(op+" failed", err, "request_id", middleware.GetRequestID(c))
	}
	c.JSON(status, models.ResultResponse{Success: false, Message: msg})
}
