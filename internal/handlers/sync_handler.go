package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salescrm/internal/services"
	"salescrm/internal/store"
)

type SyncHandler struct {
	Sync  *services.SyncService
	Cache *store.LeadCache
	Coord *services.Coordinator
}

func NewSyncHandler(sync *services.SyncService, cache *store.LeadCache, coord *services.Coordinator) *SyncHandler {
	return &SyncHandler{Sync: sync, Cache: cache, Coord: coord}
}

// @Summary      Reload the lead cache from the CRM
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.SyncReport
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  ErrorResponse
// @Router       /sync [post]
func (h *SyncHandler) Refresh(c *gin.Context) {
	report, err := h.Sync.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Liveness and cache state
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /healthz [get]
func (h *SyncHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"cached_leads": h.Cache.Len(),
		"in_flight":    len(h.Coord.InFlight()),
	})
}
