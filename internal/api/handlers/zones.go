package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/subzone/internal/api/models"
)

// ListZones godoc
// @Summary List all zones
// @Description Returns the registered parent domains with their provider zone ids
// @Tags zones
// @Produce json
// @Success 200 {object} models.ZoneListResponse
// @Security ApiKeyAuth
// @Router /api/v1/zones [get]
func (h *Handler) ListZones(c *gin.Context) {
	summaries := make([]models.ZoneSummary, 0)
	if h.zones != nil {
		for _, name := range h.zones.Domains() {
			z, _ := h.zones.Lookup(name)
			mode := "token"
			if z.Email != "" {
				mode = "key"
			}
			summaries = append(summaries, models.ZoneSummary{
				Name:     z.ParentDomain,
				ZoneID:   z.ZoneID,
				AuthMode: mode,
			})
		}
	}

	c.JSON(http.StatusOK, models.ZoneListResponse{
		Zones: summaries,
		Count: len(summaries),
	})
}
